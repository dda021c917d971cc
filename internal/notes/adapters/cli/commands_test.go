package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannote/internal/notes/adapters/cli"
	"cleannote/internal/notes/adapters/memory"
	"cleannote/internal/notes/app"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/domain/validation"
)

type harness struct {
	repo     *memory.NoteRepository
	opened   int
	released int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := memory.NewNoteRepository()
	t.Cleanup(repo.Close)
	return &harness{repo: repo}
}

func (h *harness) open(_ context.Context, _ string) (*app.NoteUseCases, func(context.Context) error, error) {
	h.opened++
	return app.NewNoteUseCases(h.repo), func(context.Context) error {
		h.released++
		return nil
	}, nil
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return execute(context.Background(), h.open, stdin, args...)
}

func execute(ctx context.Context, open cli.Opener, stdin string, args ...string) (string, error) {
	cmd := cli.NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (h *harness) seed(t *testing.T, title string, timestamp int64, color entities.Color) int64 {
	t.Helper()
	id, err := h.repo.Insert(context.Background(), entities.Note{
		Title: title, Content: "content " + title, Timestamp: timestamp, Color: color,
	})
	require.NoError(t, err)
	return id
}

func TestAddCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "add", "--title", "groceries", "--content", "milk", "--color", "violet")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
	assert.Equal(t, 1, h.opened)
	assert.Equal(t, 1, h.released)

	note, err := h.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "groceries", note.Title)
	assert.Equal(t, "milk", note.Content)
	assert.Equal(t, entities.ColorViolet, note.Color)
	assert.InDelta(t, time.Now().UnixMilli(), note.Timestamp, float64(time.Minute.Milliseconds()))
}

func TestAddCommand_DefaultColor(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "add", "-t", "a", "-m", "b")
	require.NoError(t, err)

	note, err := h.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, entities.DefaultColor(), note.Color)
}

func TestAddCommand_Invalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "add", "--title", "　", "--content", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrEmptyTitle)

	_, err = h.run(t, "", "add", "--title", "x", "--content", "x", "--color", "mauve")
	require.Error(t, err)
	assert.Equal(t, 1, h.opened, "bad color is rejected before opening the store")

	notes, err := app.NewGetNotes(h.repo).Snapshot(context.Background(), entities.DefaultNoteOrder())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestListCommand(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "2", 2, entities.ColorLightGreen)
	h.seed(t, "3", 3, entities.ColorRedOrange)
	h.seed(t, "1", 1, entities.ColorViolet)

	out, err := h.run(t, "", "list", "--order", "title:asc")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "content 1")
	assert.Contains(t, lines[2], "content 2")
	assert.Contains(t, lines[3], "content 3")
	assert.Contains(t, lines[1], entities.ColorViolet.Hex())
}

func TestListCommand_BadOrder(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "list", "--order", "size")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidOrder)
	assert.Zero(t, h.opened)
}

func TestGetCommand(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t, "title", 42, entities.ColorBabyBlue)

	out, err := h.run(t, "", "get", "1")
	require.NoError(t, err)

	var note entities.Note
	require.NoError(t, json.Unmarshal([]byte(out), &note))
	assert.Equal(t, entities.SavedID(id), note.ID)
	assert.Equal(t, "title", note.Title)
	assert.Equal(t, int64(42), note.Timestamp)

	_, err = h.run(t, "", "get", "7")
	assert.ErrorIs(t, err, cli.ErrNoteNotFound)

	_, err = h.run(t, "", "get", "seven")
	assert.Error(t, err)
}

func TestEditCommand(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "test-title", 1, entities.ColorRedOrange)

	out, err := h.run(t, "", "edit", "1", "--title", "test-title2", "--color", "#FFF48FB1")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	note, err := h.repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "test-title2", note.Title)
	assert.Equal(t, "content test-title", note.Content, "unchanged flags keep their value")
	assert.Equal(t, entities.ColorRedPink, note.Color)
	assert.Greater(t, note.Timestamp, int64(1))

	_, err = h.run(t, "", "edit", "2", "--title", "x")
	assert.ErrorIs(t, err, cli.ErrNoteNotFound)

	_, err = h.run(t, "", "edit", "1", "--content", " ")
	assert.ErrorIs(t, err, validation.ErrEmptyContent)
}

func TestDeleteAndRestoreCommands(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "keep", 1, entities.ColorRedOrange)
	h.seed(t, "undo me", 2, entities.ColorViolet)

	deleted, err := h.run(t, "", "delete", "2")
	require.NoError(t, err)

	gone, err := h.repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, gone)

	out, err := h.run(t, deleted, "restore")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	restored, err := h.repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "undo me", restored.Title)
	assert.Equal(t, entities.ColorViolet, restored.Color)
	assert.Equal(t, int64(2), restored.Timestamp)

	_, err = h.run(t, "", "delete", "9")
	assert.ErrorIs(t, err, cli.ErrNoteNotFound)
}

func TestRestoreCommand_RequiresID(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, `{"id":null,"title":"a","content":"b"}`, "restore")
	require.Error(t, err)

	_, err = h.run(t, "not json", "restore")
	require.Error(t, err)
	assert.Zero(t, h.opened)
}

func TestWatchCommand(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "first", 1, entities.ColorRedOrange)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := execute(ctx, h.open, "", "watch", "--order", "date:asc")
		done <- result{out, err}
	}()

	require.Eventually(t, func() bool { return h.repo.Subscribers() > 0 }, time.Second, 5*time.Millisecond)
	h.seed(t, "second", 2, entities.ColorRedOrange)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.out, "content first")
		assert.Contains(t, res.out, "content second")
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestColorsCommand(t *testing.T) {
	out, err := execute(context.Background(), func(context.Context, string) (*app.NoteUseCases, func(context.Context) error, error) {
		return nil, nil, errors.New("not used")
	}, "", "colors")
	require.NoError(t, err)
	for _, c := range entities.Palette() {
		assert.Contains(t, out, c.Hex())
	}
	assert.Contains(t, out, "baby-blue")
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := execute(context.Background(), func(context.Context, string) (*app.NoteUseCases, func(context.Context) error, error) {
		return nil, nil, boom
	}, "", "list")
	assert.ErrorIs(t, err, boom)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    entities.Color
		wantErr bool
	}{
		{in: "red-orange", want: entities.ColorRedOrange},
		{in: " Light-Green ", want: entities.ColorLightGreen},
		{in: "#FF81DEEA", want: entities.ColorBabyBlue},
		{in: "#ff81deea", want: entities.ColorBabyBlue},
		{in: "#GG000000", wantErr: true},
		{in: "#1FFFFFFFF", wantErr: true},
		{in: "blue", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cli.ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
