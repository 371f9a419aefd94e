package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ceidigital/cei_console_go/internal/core"
	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/data"
	"github.com/ceidigital/cei_console_go/internal/data/models"
	"github.com/ceidigital/cei_console_go/internal/repositories"
)

type SessionManagerSuite struct {
	suite.Suite
	state repositories.StateRepository
	enc   *Encryptor
}

func (s *SessionManagerSuite) SetupTest() {
	db, err := data.InitializeDB(&core.Config{DBEngine: "sqlite", DBName: filepath.Join(s.T().TempDir(), "state.db")})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = data.CloseDB(db) })
	s.state = repositories.NewGormStateRepository(db)
	s.enc, err = NewEncryptor("segredo-de-teste")
	s.Require().NoError(err)
}

func (s *SessionManagerSuite) TestStartsAnonymous() {
	sm := NewSessionManager(s.state, s.enc)
	s.False(sm.IsAuthenticated())
	s.Nil(sm.Current())
	s.Nil(sm.Session())
	s.Empty(sm.Token())
}

func (s *SessionManagerSuite) TestSavePersistsEncryptedToken() {
	sm := NewSessionManager(s.state, s.enc)
	session, err := sm.Save("tok-123", "ana@cei.com.br", []string{models.RoleMaster})
	s.Require().NoError(err)
	s.True(session.IsMaster())
	s.Equal("tok-123", sm.Token())

	stored, err := s.state.Get(models.StateKeyAuthToken)
	s.Require().NoError(err)
	s.NotEqual("tok-123", stored)
	s.NotContains(stored, "tok-123")

	roles, err := s.state.Get(models.StateKeyAuthRoles)
	s.Require().NoError(err)
	s.JSONEq(`["MASTER"]`, roles)
}

func (s *SessionManagerSuite) TestRestoreRoundTrip() {
	sm := NewSessionManager(s.state, s.enc)
	_, err := sm.Save("tok-abc", "ana@cei.com.br", []string{models.RoleAdmin, models.RoleUser})
	s.Require().NoError(err)

	restored := NewSessionManager(s.state, s.enc)
	s.Require().True(restored.IsAuthenticated())
	cur := restored.Current()
	s.Equal("ana@cei.com.br", cur.Email)
	s.Equal([]string{models.RoleAdmin, models.RoleUser}, cur.Roles)
	s.Equal("tok-abc", restored.Token())
}

func (s *SessionManagerSuite) TestRestoreWithOtherKeyClearsState() {
	sm := NewSessionManager(s.state, s.enc)
	_, err := sm.Save("tok-abc", "ana@cei.com.br", nil)
	s.Require().NoError(err)

	other, _ := NewEncryptor("outra-chave")
	restored := NewSessionManager(s.state, other)
	s.False(restored.IsAuthenticated())

	_, err = s.state.Get(models.StateKeyAuthToken)
	s.ErrorIs(err, appErrors.ErrNotFound)
}

func (s *SessionManagerSuite) TestClearKeepsLastEmail() {
	sm := NewSessionManager(s.state, s.enc)
	_, err := sm.Save("tok-abc", "ana@cei.com.br", []string{models.RoleUser})
	s.Require().NoError(err)

	s.Require().NoError(sm.Clear())
	s.False(sm.IsAuthenticated())
	s.Equal("ana@cei.com.br", sm.LastEmail())

	s.False(NewSessionManager(s.state, s.enc).IsAuthenticated())
}

func (s *SessionManagerSuite) TestSaveRejectsEmptyToken() {
	sm := NewSessionManager(s.state, s.enc)
	_, err := sm.Save("  ", "ana@cei.com.br", nil)
	s.ErrorIs(err, appErrors.ErrInvalidInput)
}

func (s *SessionManagerSuite) TestCurrentIsACopy() {
	sm := NewSessionManager(s.state, s.enc)
	_, err := sm.Save("tok", "ana@cei.com.br", []string{models.RoleUser})
	s.Require().NoError(err)

	cur := sm.Current()
	cur.Roles[0] = models.RoleMaster
	s.Equal([]string{models.RoleUser}, sm.Current().Roles)
}

func TestSessionManagerSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerSuite))
}
