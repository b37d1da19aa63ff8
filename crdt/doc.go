/*
Package crdt implements the operation-based observed-removed set (ORSet) that
holds the mailbox names of one user. Every add of a name creates a unique tag,
a remove drops all tags currently observed for that name, so concurrent adds
and removes of the same name resolve in favor of the add.

Each update returns the ORSetOp describing it, which callers may log or send
to other replicas.

The ORSet is a practical derivation from its specification by Shapiro,
Preguiça, Baquero and Zawirski, available under:
https://hal.inria.fr/inria-00555588/document
*/
package crdt
