package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"nauta-sdk/lib/telemetry"
	"nauta-sdk/lib/timezone"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(Schema)
	require.NoError(t, err)
	return NewStore(sqlite)
}

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:recordstore")
	defer cleanup()

	store := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		res, err := store.Query(ctx, QueryRequest{
			Account:  "unknown@nauta.com.cu",
			Category: "connections",
		})
		require.NoError(t, err)
		require.Len(t, res, 0)
	}

	march := time.Date(2026, time.March, 5, 10, 0, 0, 0, timezone.Location)
	err := store.Push(ctx, PushRequest{
		Account:   "alice@nauta.com.cu",
		Category:  "connections",
		YearMonth: "2026-03",
		Records: []Record{
			{OccurredAt: march, Detail: json.RawMessage(`{"cost":0.5}`)},
			{OccurredAt: march.Add(time.Hour), Detail: json.RawMessage(`{"cost":1.25}`)},
		},
	})
	require.NoError(t, err)

	{
		res, err := store.Query(ctx, QueryRequest{
			Account:  "alice@nauta.com.cu",
			Category: "connections",
		})
		require.NoError(t, err)
		require.Len(t, res, 2)
		require.True(t, res[0].OccurredAt.Before(res[1].OccurredAt))
		require.JSONEq(t, `{"cost":0.5}`, string(res[0].Detail))
	}

	// a second push of the same month replaces its rows instead of
	// piling on duplicates
	err = store.Push(ctx, PushRequest{
		Account:   "alice@nauta.com.cu",
		Category:  "connections",
		YearMonth: "2026-03",
		Records: []Record{
			{OccurredAt: march, Detail: json.RawMessage(`{"cost":0.5}`)},
		},
	})
	require.NoError(t, err)

	{
		res, err := store.Query(ctx, QueryRequest{
			Account:   "alice@nauta.com.cu",
			Category:  "connections",
			YearMonth: "2026-03",
		})
		require.NoError(t, err)
		require.Len(t, res, 1)
	}

	// other accounts and categories stay isolated
	err = store.Push(ctx, PushRequest{
		Account:   "alice@nauta.com.cu",
		Category:  "recharges",
		YearMonth: "2026-04",
		Records: []Record{
			{OccurredAt: march.AddDate(0, 1, 0), Detail: json.RawMessage(`{"amount":250}`)},
		},
	})
	require.NoError(t, err)

	{
		res, err := store.Query(ctx, QueryRequest{
			Account:  "alice@nauta.com.cu",
			Category: "connections",
		})
		require.NoError(t, err)
		require.Len(t, res, 1)
	}

	months, err := store.Months(ctx, "alice@nauta.com.cu", "recharges")
	require.NoError(t, err)
	require.Equal(t, []string{"2026-04"}, months)
}
