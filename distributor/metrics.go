package distributor

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-pluto/imaparg/imap"
)

type metricsService struct {
	service  Service
	logins   metrics.Counter
	logouts  metrics.Counter
	commands metrics.Counter
	rejected metrics.Counter
}

// NewMetricsService counts successful logins and
// logouts, handled commands labeled by "command",
// and rejected lines.
func NewMetricsService(s Service, logins metrics.Counter, logouts metrics.Counter, commands metrics.Counter, rejected metrics.Counter) Service {
	return &metricsService{
		service:  s,
		logins:   logins,
		logouts:  logouts,
		commands: commands,
		rejected: rejected,
	}
}

func (s *metricsService) count(req *imap.Request) {
	s.commands.With("command", req.Command).Add(1)
}

func (s *metricsService) Reject(c *Connection, tag string, err error) bool {
	s.rejected.Add(1)
	return s.service.Reject(c, tag, err)
}

func (s *metricsService) Capability(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Capability(c, req)
}

func (s *metricsService) Noop(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Noop(c, req)
}

func (s *metricsService) Logout(c *Connection, req *imap.Request) bool {

	s.count(req)
	ok := s.service.Logout(c, req)

	if ok {
		s.logouts.Add(1)
	}

	return ok
}

func (s *metricsService) Login(c *Connection, req *imap.Request) bool {

	s.count(req)
	wasAuthorized := c.IsAuthorized
	ok := s.service.Login(c, req)

	if ok && !wasAuthorized && c.IsAuthorized {
		s.logins.Add(1)
	}

	return ok
}

func (s *metricsService) StartTLS(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.StartTLS(c, req)
}

func (s *metricsService) Select(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Select(c, req)
}

func (s *metricsService) Create(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Create(c, req)
}

func (s *metricsService) Delete(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Delete(c, req)
}

func (s *metricsService) Rename(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Rename(c, req)
}

func (s *metricsService) Subscribe(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Subscribe(c, req)
}

func (s *metricsService) List(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.List(c, req)
}

func (s *metricsService) Status(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Status(c, req)
}

func (s *metricsService) Append(c *Connection, req *imap.Request) bool {
	s.count(req)
	return s.service.Append(c, req)
}
