package distributor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-pluto/imaparg/auth"
	"github.com/go-pluto/imaparg/config"
	"github.com/go-pluto/imaparg/imap"
	"github.com/pkg/errors"
)

// Constants

// dateTimeLayout is the date-time format of APPEND.
const dateTimeLayout = "_2-Jan-2006 15:04:05 -0700"

// uidValidity is announced for every mailbox, as no
// mailbox is ever recreated with different UIDs here.
const uidValidity = 1

// Structs

type service struct {
	logger log.Logger
	conf   *config.Config
	passdb auth.PassDB
	userdb auth.UserDB
	boxes  *mailboxes
}

// Interfaces

// Service defines the interface the distributor of
// a pluto network provides. Every handler gets a request
// whose arguments were validated against the manifest of
// its command. Handlers return false if communication
// with the client failed and the session has to end.
type Service interface {

	// Reject answers a line that is no valid request
	// or whose arguments do not fit its command.
	Reject(c *Connection, tag string, err error) bool

	// Capability handles the IMAP CAPABILITY command.
	// It outputs the supported actions in the current state.
	Capability(c *Connection, req *imap.Request) bool

	// Noop handles the IMAP NOOP command.
	Noop(c *Connection, req *imap.Request) bool

	// Logout correctly ends a session with a client.
	Logout(c *Connection, req *imap.Request) bool

	// Login verifies the supplied credentials, looks up
	// the user and assigns the responsible worker.
	Login(c *Connection, req *imap.Request) bool

	// StartTLS answers the IMAP STARTTLS command.
	StartTLS(c *Connection, req *imap.Request) bool

	// Select handles SELECT and EXAMINE.
	Select(c *Connection, req *imap.Request) bool

	// Create handles the IMAP CREATE command.
	Create(c *Connection, req *imap.Request) bool

	// Delete handles the IMAP DELETE command.
	Delete(c *Connection, req *imap.Request) bool

	// Rename handles the IMAP RENAME command.
	Rename(c *Connection, req *imap.Request) bool

	// Subscribe handles SUBSCRIBE and UNSUBSCRIBE.
	Subscribe(c *Connection, req *imap.Request) bool

	// List handles LIST and LSUB.
	List(c *Connection, req *imap.Request) bool

	// Status handles the IMAP STATUS command.
	Status(c *Connection, req *imap.Request) bool

	// Append validates an APPEND request up to
	// its announced literal.
	Append(c *Connection, req *imap.Request) bool
}

// Functions

// NewService takes in all required parameters for spinning
// up a new distributor and returns a service struct for
// this node type wrapping all information.
func NewService(logger log.Logger, conf *config.Config, passdb auth.PassDB, userdb auth.UserDB) Service {

	return &service{
		logger: logger,
		conf:   conf,
		passdb: passdb,
		userdb: userdb,
		boxes:  newMailboxes(),
	}
}

// Run greets the client and feeds every line read from
// in to Handle until the client logs out, in is exhausted
// or a command fails to communicate.
func Run(s Service, c *Connection, greeting string, in io.Reader) error {

	// Send initial server greeting.
	err := c.Send(fmt.Sprintf("* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN] %s", greeting))
	if err != nil {
		return fmt.Errorf("error while sending greeting to client %s: %v", c.ClientAddr, err)
	}

	scanner := bufio.NewScanner(in)

	// As long as we did not receive a LOGOUT
	// command from client or experienced an
	// error, we accept requests.
	for !c.LoggedOut && scanner.Scan() {

		if !Handle(s, c, strings.TrimRight(scanner.Text(), "\r")) {
			return fmt.Errorf("session %s of client %s ended after failed communication", c.SessionID, c.ClientAddr)
		}
	}

	return scanner.Err()
}

// Handle parses one command line, validates its
// arguments and invokes the matching handler of s.
func Handle(s Service, c *Connection, line string) bool {

	req, err := imap.ParseRequest(line)
	if err != nil {
		return s.Reject(c, "*", err)
	}

	if err := imap.ValidateArgs(req); err != nil {
		return s.Reject(c, req.Tag, err)
	}

	switch req.Command {

	case "CAPABILITY":
		return s.Capability(c, req)

	case "NOOP":
		return s.Noop(c, req)

	case "LOGOUT":
		return s.Logout(c, req)

	case "STARTTLS":
		return s.StartTLS(c, req)

	case "LOGIN":
		return s.Login(c, req)
	}

	if !c.IsAuthorized {
		return s.Reject(c, req.Tag, fmt.Errorf("Command %s cannot be executed in this state", req.Command))
	}

	switch req.Command {

	case "SELECT", "EXAMINE":
		return s.Select(c, req)

	case "CREATE":
		return s.Create(c, req)

	case "DELETE":
		return s.Delete(c, req)

	case "RENAME":
		return s.Rename(c, req)

	case "SUBSCRIBE", "UNSUBSCRIBE":
		return s.Subscribe(c, req)

	case "LIST", "LSUB":
		return s.List(c, req)

	case "STATUS":
		return s.Status(c, req)

	case "APPEND":
		return s.Append(c, req)
	}

	return s.Reject(c, req.Tag, fmt.Errorf("Received invalid IMAP command"))
}

// send writes text to the client and logs a failure.
func (s *service) send(c *Connection, text string) bool {

	err := c.Send(text)
	if err != nil {
		level.Error(s.logger).Log(
			"msg", fmt.Sprintf("error while sending text to client %s", c.ClientAddr),
			"err", err,
		)
		return false
	}

	return true
}

// internalError tells the client that the session
// cannot continue and reports false.
func (s *service) internalError(c *Connection, msg string, err error) bool {

	c.Send("* BAD Internal server error, sorry. Closing connection.")
	level.Error(s.logger).Log(
		"msg", msg,
		"err", err,
	)

	return false
}

func (s *service) Reject(c *Connection, tag string, err error) bool {

	var reqErr *imap.RequestError
	if errors.As(err, &reqErr) {
		return s.send(c, reqErr.Error())
	}

	return s.send(c, fmt.Sprintf("%s BAD %v", tag, err))
}

func (s *service) Capability(c *Connection, req *imap.Request) bool {

	// Send mandatory capability options.
	// This means, AUTH=PLAIN is allowed and nothing else.
	return s.send(c, fmt.Sprintf("* CAPABILITY IMAP4rev1 AUTH=PLAIN\r\n%s OK CAPABILITY completed", req.Tag))
}

func (s *service) Noop(c *Connection, req *imap.Request) bool {
	return s.send(c, fmt.Sprintf("%s OK NOOP completed", req.Tag))
}

func (s *service) Logout(c *Connection, req *imap.Request) bool {

	c.LoggedOut = true
	c.SelectedMailbox = ""

	return s.send(c, fmt.Sprintf("* BYE Terminating connection\r\n%s OK LOGOUT completed", req.Tag))
}

func (s *service) StartTLS(c *Connection, req *imap.Request) bool {
	return s.send(c, fmt.Sprintf("%s NO TLS is not available on this connection", req.Tag))
}

func (s *service) Login(c *Connection, req *imap.Request) bool {

	if c.IsAuthorized {

		// Connection was already once authenticated,
		// cannot do that a second time, client error.
		return s.send(c, fmt.Sprintf("%s BAD Command LOGIN cannot be executed in this state", req.Tag))
	}

	// The manifest guarantees two astrings.
	name := imap.MustAstring(req.Args[0])
	password := imap.MustAstring(req.Args[1])

	ctx := context.Background()

	ok, err := s.passdb.VerifyPlain(ctx, name, password)
	if err != nil {
		return s.internalError(c, fmt.Sprintf("error verifying password of user %s", name), err)
	}

	if !ok {
		return s.send(c, fmt.Sprintf("%s NO Name and / or password wrong", req.Tag))
	}

	user, found, err := s.userdb.LookupUser(ctx, name)
	if err != nil {
		return s.internalError(c, fmt.Sprintf("error looking up user %s", name), err)
	}

	if !found {
		level.Warn(s.logger).Log("msg", fmt.Sprintf("user %s authenticated but unknown to userdb", name))
		return s.send(c, fmt.Sprintf("%s NO Name and / or password wrong", req.Tag))
	}

	// Find worker node responsible for this user.
	respWorker, err := s.conf.WorkerForUser(user.UID)
	if err != nil {
		return s.internalError(c, fmt.Sprintf("error finding worker for user %s with ID %d", name, user.UID), err)
	}

	// Save context to connection struct.
	c.IsAuthorized = true
	c.UserName = name
	c.User = user
	c.RespWorker = respWorker

	s.boxes.forUser(name)

	return s.send(c, fmt.Sprintf("%s OK Logged in", req.Tag))
}

func (s *service) Select(c *Connection, req *imap.Request) bool {

	name := canonicalMailbox(imap.MustAstring(req.Args[0]))

	// A failed SELECT leaves no mailbox selected.
	c.SelectedMailbox = ""

	if !s.boxes.forUser(c.UserName).all.Lookup(name) {
		return s.send(c, fmt.Sprintf("%s NO Mailbox does not exist", req.Tag))
	}

	c.SelectedMailbox = name
	c.ReadOnly = req.Command == "EXAMINE"

	access := "READ-WRITE"
	if c.ReadOnly {
		access = "READ-ONLY"
	}

	lines := []string{
		`* FLAGS (\Answered \Flagged \Deleted \Seen \Draft)`,
		`* OK [PERMANENTFLAGS (\Answered \Flagged \Deleted \Seen \Draft \*)] Limited`,
		"* 0 EXISTS",
		"* 0 RECENT",
		fmt.Sprintf("* OK [UIDVALIDITY %d] UIDs valid", uidValidity),
		"* OK [UIDNEXT 1] Predicted next UID",
		fmt.Sprintf("%s OK [%s] %s completed", req.Tag, access, req.Command),
	}

	return s.send(c, strings.Join(lines, "\r\n"))
}

func (s *service) Create(c *Connection, req *imap.Request) bool {

	name := imap.MustAstring(req.Args[0])

	// A trailing separator only declares the intent
	// to create names below this one.
	name = canonicalMailbox(strings.TrimSuffix(name, s.conf.IMAP.HierarchySeparator))

	if name == "" {
		return s.send(c, fmt.Sprintf("%s BAD Empty mailbox name", req.Tag))
	}

	boxes := s.boxes.forUser(c.UserName)
	if boxes.all.Lookup(name) {
		return s.send(c, fmt.Sprintf("%s NO Mailbox already exists", req.Tag))
	}

	op := boxes.all.Add(name)
	level.Debug(s.logger).Log("msg", "mailbox created", "user", c.UserName, "op", op)

	return s.send(c, fmt.Sprintf("%s OK CREATE completed", req.Tag))
}

func (s *service) Delete(c *Connection, req *imap.Request) bool {

	name := canonicalMailbox(imap.MustAstring(req.Args[0]))

	if name == "INBOX" {
		return s.send(c, fmt.Sprintf("%s NO Cannot delete INBOX", req.Tag))
	}

	op := s.boxes.forUser(c.UserName).all.Remove(name)
	if op == nil {
		return s.send(c, fmt.Sprintf("%s NO Mailbox does not exist", req.Tag))
	}
	level.Debug(s.logger).Log("msg", "mailbox deleted", "user", c.UserName, "op", op)

	if c.SelectedMailbox == name {
		c.SelectedMailbox = ""
	}

	return s.send(c, fmt.Sprintf("%s OK DELETE completed", req.Tag))
}

func (s *service) Rename(c *Connection, req *imap.Request) bool {

	from := canonicalMailbox(imap.MustAstring(req.Args[0]))
	to := canonicalMailbox(imap.MustAstring(req.Args[1]))

	boxes := s.boxes.forUser(c.UserName)

	if !boxes.all.Lookup(from) {
		return s.send(c, fmt.Sprintf("%s NO Mailbox to rename does not exist", req.Tag))
	}

	if boxes.all.Lookup(to) {
		return s.send(c, fmt.Sprintf("%s NO Target mailbox already exists", req.Tag))
	}

	boxes.all.Add(to)

	// Renaming INBOX moves its content but
	// leaves an empty INBOX behind.
	if from != "INBOX" {
		boxes.all.Remove(from)
	}

	return s.send(c, fmt.Sprintf("%s OK RENAME completed", req.Tag))
}

func (s *service) Subscribe(c *Connection, req *imap.Request) bool {

	name := canonicalMailbox(imap.MustAstring(req.Args[0]))
	boxes := s.boxes.forUser(c.UserName)

	if req.Command == "UNSUBSCRIBE" {

		if boxes.subscribed.Remove(name) == nil {
			return s.send(c, fmt.Sprintf("%s NO Mailbox is not subscribed", req.Tag))
		}

		return s.send(c, fmt.Sprintf("%s OK UNSUBSCRIBE completed", req.Tag))
	}

	if !boxes.all.Lookup(name) {
		return s.send(c, fmt.Sprintf("%s NO Mailbox does not exist", req.Tag))
	}

	if !boxes.subscribed.Lookup(name) {
		boxes.subscribed.Add(name)
	}

	return s.send(c, fmt.Sprintf("%s OK SUBSCRIBE completed", req.Tag))
}

func (s *service) List(c *Connection, req *imap.Request) bool {

	reference := imap.MustAstring(req.Args[0])
	pattern := imap.MustAstring(req.Args[1])
	sep := s.conf.IMAP.HierarchySeparator

	lines := make([]string, 0, 4)

	if pattern == "" {

		// An empty pattern asks for the hierarchy
		// separator and the root of the reference.
		lines = append(lines, fmt.Sprintf(`* %s (\Noselect) %s ""`, req.Command, imap.Quoted(sep)))

	} else {

		boxes := s.boxes.forUser(c.UserName)

		set := boxes.all
		if req.Command == "LSUB" {
			set = boxes.subscribed
		}

		for _, name := range set.GetAllValues() {

			if matchMailbox(reference+pattern, name, sep) {
				lines = append(lines, fmt.Sprintf("* %s () %s %s", req.Command, imap.Quoted(sep), imap.Quoted(name)))
			}
		}
	}

	lines = append(lines, fmt.Sprintf("%s OK %s completed", req.Tag, req.Command))

	return s.send(c, strings.Join(lines, "\r\n"))
}

func (s *service) Status(c *Connection, req *imap.Request) bool {

	name := canonicalMailbox(imap.MustAstring(req.Args[0]))
	items := imap.MustList(req.Args[1])

	if len(items) == 0 {
		return s.send(c, fmt.Sprintf("%s BAD Command STATUS needs at least one status data item", req.Tag))
	}

	if !s.boxes.forUser(c.UserName).all.Lookup(name) {
		return s.send(c, fmt.Sprintf("%s NO Mailbox does not exist", req.Tag))
	}

	values := make([]string, 0, len(items))

	for _, item := range items {

		var value int

		switch {
		case imap.AtomEquals(item, "MESSAGES"), imap.AtomEquals(item, "RECENT"), imap.AtomEquals(item, "UNSEEN"):
			value = 0
		case imap.AtomEquals(item, "UIDNEXT"):
			value = 1
		case imap.AtomEquals(item, "UIDVALIDITY"):
			value = uidValidity
		default:
			return s.send(c, fmt.Sprintf("%s BAD Unknown status data item %s", req.Tag, item))
		}

		values = append(values, fmt.Sprintf("%s %d", strings.ToUpper(imap.MustAtom(item)), value))
	}

	return s.send(c, fmt.Sprintf("* STATUS %s (%s)\r\n%s OK STATUS completed", imap.Quoted(name), strings.Join(values, " "), req.Tag))
}

func (s *service) Append(c *Connection, req *imap.Request) bool {

	name := canonicalMailbox(imap.MustAstring(req.Args[0]))
	args := req.Args[1:]

	// Optional flag list.
	if flags, ok := imap.GetList(args[0]); ok {

		for _, flag := range flags {

			if _, ok := imap.GetAtom(flag); !ok {
				return s.send(c, fmt.Sprintf("%s BAD Flag %s is no atom", req.Tag, flag))
			}
		}

		args = args[1:]
	}

	// Optional date-time.
	if date, ok := imap.GetQuoted(args[0]); ok {

		if _, err := time.Parse(dateTimeLayout, date); err != nil {
			return s.send(c, fmt.Sprintf("%s BAD Invalid date-time %s", req.Tag, args[0]))
		}

		args = args[1:]
	}

	size := imap.MustLiteralSize(args[0])

	if !s.boxes.forUser(c.UserName).all.Lookup(name) {
		return s.send(c, fmt.Sprintf("%s NO [TRYCREATE] Mailbox does not exist", req.Tag))
	}

	level.Debug(s.logger).Log(
		"msg", "APPEND announced literal",
		"user", c.UserName,
		"mailbox", name,
		"size", size,
		"worker", c.RespWorker,
	)

	// Literal data is stored by the worker responsible
	// for the user, this front-end does not accept it.
	return s.send(c, fmt.Sprintf("%s NO [CANNOT] Literal data of %d octets for %s has to be sent to %s", req.Tag, size, imap.Quoted(name), c.RespWorker))
}
