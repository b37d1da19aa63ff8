package distributor

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-pluto/imaparg/imap"
)

type loggingService struct {
	logger  log.Logger
	service Service
}

// NewLoggingService wraps a provided existing
// service with the provided logger.
func NewLoggingService(s Service, logger log.Logger) Service {
	return &loggingService{logger, s}
}

// payload returns the request arguments for logging,
// leaving out the password of LOGIN.
func payload(req *imap.Request) string {

	if req.Command == "LOGIN" && len(req.Args) > 0 {
		return req.Args[0].String() + " <password>"
	}

	return req.Payload()
}

// log records the outcome of one handled request.
func (s *loggingService) log(method string, c *Connection, req *imap.Request, ok bool) {

	logger := log.With(s.logger,
		"method", method,
		"session", c.SessionID,
		"command", req.Command,
		"payload", payload(req),
	)

	if !ok {
		level.Info(logger).Log("msg", "failed to perform operation "+method+" correctly")
	} else {
		level.Debug(logger).Log()
	}
}

// Reject wraps this service's Reject method
// with added logging capabilities.
func (s *loggingService) Reject(c *Connection, tag string, err error) bool {

	ok := s.service.Reject(c, tag, err)

	level.Debug(s.logger).Log(
		"msg", "rejected request",
		"session", c.SessionID,
		"tag", tag,
		"err", err,
	)

	return ok
}

// Capability wraps this service's Capability
// method with added logging capabilities.
func (s *loggingService) Capability(c *Connection, req *imap.Request) bool {
	ok := s.service.Capability(c, req)
	s.log("CAPABILITY", c, req, ok)
	return ok
}

// Noop wraps this service's Noop method
// with added logging capabilities.
func (s *loggingService) Noop(c *Connection, req *imap.Request) bool {
	ok := s.service.Noop(c, req)
	s.log("NOOP", c, req, ok)
	return ok
}

// Logout wraps this service's Logout method
// with added logging capabilities.
func (s *loggingService) Logout(c *Connection, req *imap.Request) bool {
	ok := s.service.Logout(c, req)
	s.log("LOGOUT", c, req, ok)
	return ok
}

// Login wraps this service's Login method
// with added logging capabilities.
func (s *loggingService) Login(c *Connection, req *imap.Request) bool {

	wasAuthorized := c.IsAuthorized
	ok := s.service.Login(c, req)
	s.log("LOGIN", c, req, ok)

	if !wasAuthorized && c.IsAuthorized {
		level.Info(s.logger).Log(
			"msg", "user logged in",
			"session", c.SessionID,
			"user", c.UserName,
			"worker", c.RespWorker,
		)
	}

	return ok
}

// StartTLS wraps this service's StartTLS
// method with added logging capabilities.
func (s *loggingService) StartTLS(c *Connection, req *imap.Request) bool {
	ok := s.service.StartTLS(c, req)
	s.log("STARTTLS", c, req, ok)
	return ok
}

// Select wraps this service's Select method
// with added logging capabilities.
func (s *loggingService) Select(c *Connection, req *imap.Request) bool {
	ok := s.service.Select(c, req)
	s.log("SELECT", c, req, ok)
	return ok
}

// Create wraps this service's Create method
// with added logging capabilities.
func (s *loggingService) Create(c *Connection, req *imap.Request) bool {
	ok := s.service.Create(c, req)
	s.log("CREATE", c, req, ok)
	return ok
}

// Delete wraps this service's Delete method
// with added logging capabilities.
func (s *loggingService) Delete(c *Connection, req *imap.Request) bool {
	ok := s.service.Delete(c, req)
	s.log("DELETE", c, req, ok)
	return ok
}

// Rename wraps this service's Rename method
// with added logging capabilities.
func (s *loggingService) Rename(c *Connection, req *imap.Request) bool {
	ok := s.service.Rename(c, req)
	s.log("RENAME", c, req, ok)
	return ok
}

// Subscribe wraps this service's Subscribe
// method with added logging capabilities.
func (s *loggingService) Subscribe(c *Connection, req *imap.Request) bool {
	ok := s.service.Subscribe(c, req)
	s.log("SUBSCRIBE", c, req, ok)
	return ok
}

// List wraps this service's List method
// with added logging capabilities.
func (s *loggingService) List(c *Connection, req *imap.Request) bool {
	ok := s.service.List(c, req)
	s.log("LIST", c, req, ok)
	return ok
}

// Status wraps this service's Status method
// with added logging capabilities.
func (s *loggingService) Status(c *Connection, req *imap.Request) bool {
	ok := s.service.Status(c, req)
	s.log("STATUS", c, req, ok)
	return ok
}

// Append wraps this service's Append method
// with added logging capabilities.
func (s *loggingService) Append(c *Connection, req *imap.Request) bool {
	ok := s.service.Append(c, req)
	s.log("APPEND", c, req, ok)
	return ok
}
