package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ceidigital/cei_console_go/internal/core/errors"
	"github.com/ceidigital/cei_console_go/internal/data/models"
)

func TestLogActionFillsSessionData(t *testing.T) {
	e := newEnv(t)
	session := e.login(t, "ana@cei.com.br", models.RoleAdmin, models.RoleUser)

	require.NoError(t, e.audit.LogAction(models.AuditLogEntry{
		Action:      "EMPRESA_CREATE",
		Description: "criada",
		Severity:    "nada",
	}, session))

	logs, err := e.audit.Recent(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "ana@cei.com.br", logs[0].Username)
	assert.Equal(t, "INFO", logs[0].Severity)
	require.NotNil(t, logs[0].Roles)
	assert.Equal(t, "ADMIN,USER", *logs[0].Roles)
	require.NotNil(t, logs[0].SessionID)
	assert.Equal(t, session.ID, *logs[0].SessionID)
}

func TestLogActionWithoutSessionIsSystem(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.audit.LogAction(models.AuditLogEntry{
		Action:      "STARTUP",
		Description: strings.Repeat("x", 5000),
	}, nil))

	entries := e.auditActions(t)
	assert.Equal(t, []string{"STARTUP"}, entries)

	e.login(t, "root@cei.com.br", models.RoleMaster)
	logs, err := e.audit.Recent(1)
	require.NoError(t, err)
	assert.Equal(t, "system", logs[0].Username)
	assert.Equal(t, 4000, len([]rune(logs[0].Description)))
}

func TestLogActionRejectsEmptyFields(t *testing.T) {
	e := newEnv(t)
	err := e.audit.LogAction(models.AuditLogEntry{Description: "sem ação"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	err = e.audit.LogAction(models.AuditLogEntry{Action: "X"}, nil)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
}

func TestRecentRequiresLogView(t *testing.T) {
	e := newEnv(t)
	_, err := e.audit.Recent(5)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	e.login(t, "ana@cei.com.br", models.RoleUser)
	_, err = e.audit.Recent(5)
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
}
