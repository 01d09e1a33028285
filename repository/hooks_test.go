package repository_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/goliatone/go-scratch/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogger(t *testing.T) {
	db := setupDB(t)

	var buf bytes.Buffer
	db.AddQueryHook(repository.NewQueryLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	_, err := repository.NewUsersRepository(db).GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, repository.ErrUserNotFound)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "bun", entry["component"])
	assert.Equal(t, "SELECT", entry["operation"])
	assert.Contains(t, entry["query"], "nobody@example.com")
}
