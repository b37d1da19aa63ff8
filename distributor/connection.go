package distributor

import (
	"fmt"
	"io"

	"github.com/go-pluto/imaparg/auth"
	"github.com/satori/go.uuid"
)

// Structs

// Connection carries all information specific
// to one observed client session on its way through
// the distributor. Responses are written to Out.
type Connection struct {
	Out             io.Writer
	SessionID       string
	ClientAddr      string
	IsAuthorized    bool
	LoggedOut       bool
	UserName        string
	User            *auth.UserData
	RespWorker      string
	SelectedMailbox string
	ReadOnly        bool
}

// Functions

// NewConnection creates a session writing its
// responses to out, identified by a fresh UUID.
func NewConnection(out io.Writer, clientAddr string) *Connection {

	return &Connection{
		Out:        out,
		SessionID:  uuid.NewV4().String(),
		ClientAddr: clientAddr,
	}
}

// Send takes in an answer text from the distributor
// as a string and writes it to the client followed by
// CRLF. In case an error occurs, this method returns
// it to the calling function.
func (c *Connection) Send(text string) error {

	_, err := fmt.Fprintf(c.Out, "%s\r\n", text)
	if err != nil {
		return err
	}

	return nil
}
