package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/memory"
)

var fixedNow = time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)

func run(t *testing.T, store *memory.Store, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(App{
		APIURL:  "http://unused.test",
		NewRepo: func(string, *log.Logger) (Repository, error) { return store, nil },
		Now:     func() time.Time { return fixedNow },
	})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, mc := range []core.MealCreate{
		{Year: 2024, Month: 3, Day: 12, Type: core.Lunch, Menu: "Pasta Primavera", Count: 95},
		{Year: 2024, Month: 3, Day: 12, Type: core.Dinner, Menu: "Fish & Chips", Count: 67},
		{Year: 2024, Month: 2, Day: 29, Type: core.Breakfast, Menu: "Waffles", Count: 30},
	} {
		_, err := store.Create(ctx, mc)
		require.NoError(t, err)
	}
	return store
}

func TestCalendarCommand(t *testing.T) {
	store := seeded(t)

	out, err := run(t, store, "calendar")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2024")
	assert.Contains(t, out, " 12 *")
	assert.Contains(t, out, "Select a Day")

	out, err = run(t, store, "calendar", "--day", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "[12]*")
	assert.Contains(t, out, "March 12")
	assert.Contains(t, out, "[Lunch]    Pasta Primavera (95 servings)")
	assert.Contains(t, out, "[Dinner]   Fish & Chips (67 servings)")

	out, err = run(t, store, "calendar", "--prev", "1", "--day", "29")
	require.NoError(t, err)
	assert.Contains(t, out, "February 2024")
	assert.Contains(t, out, "Waffles")

	out, err = run(t, store, "calendar", "--day", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "No meals planned for this day.")
}

func TestCalendarCommandErrors(t *testing.T) {
	store := seeded(t)

	_, err := run(t, store, "calendar", "--month", "2", "--day", "30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "day 30")

	_, err = run(t, store, "calendar", "--month", "13")
	assert.Equal(t, 2, ExitCode(err))
}

func TestMealAddCommand(t *testing.T) {
	store := memory.New()

	out, err := run(t, store, "meal", "add", "--day", "5", "--type", "Breakfast", "--menu", "Pancakes", "--count", "45")
	require.NoError(t, err)
	assert.Contains(t, out, "Created meal ")
	assert.Contains(t, out, "March 5")
	assert.Contains(t, out, "Pancakes (45 servings)")

	meals, _ := store.ListByMonth(context.Background(), 2024, 3)
	require.Len(t, meals, 1)
	assert.Equal(t, core.Breakfast, meals[0].Type)

	_, err = run(t, store, "meal", "add", "--day", "5", "--menu", " ", "--count", "3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyMenu))
	assert.Equal(t, 2, ExitCode(err))

	meals, _ = store.ListByMonth(context.Background(), 2024, 3)
	assert.Len(t, meals, 1)
}

func TestDashboardCommand(t *testing.T) {
	store := seeded(t)
	_, err := store.CreateCompany(context.Background(), core.CompanyCreate{Name: "Acme", Email: "ops@acme.io"})
	require.NoError(t, err)

	out, err := run(t, store, "dashboard")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "Meals today:")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[0]), "162"), lines[0])
	assert.Contains(t, out, "Active companies:  1")
	assert.Contains(t, out, "  Tue")

	out, err = run(t, store, "dashboard", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"today_total": 162`)
	assert.Contains(t, out, `"Lunch": 95`)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 3, ExitCode(core.ErrNotFound))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
