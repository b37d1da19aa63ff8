/*
Package imap tokenizes IMAP command lines into arguments and provides the typed
accessors command handlers read them with.

An argument is one of Atom, Nil, Quoted, Literal, LiteralSize, LiteralSizeNonSync,
*List or EOL. EOL terminates a complete sequence and is never a value itself. A line
ending with a literal size is tokenized up to that size only: the sequence then has
no EOL and every list still open at that point is marked ListOpen.

Accessors come in two tiers. The Get* functions report a mismatch with a false
second return value and never panic. The Must* functions are meant for handlers
whose arguments were validated against the Manifest of their command first; a
mismatch there is a defect and panics with an error wrapping ErrUnreachable.

Please refer to https://tools.ietf.org/html/rfc3501#section-9 for the formal
syntax of IMAP v4 rev1 arguments.
*/
package imap
