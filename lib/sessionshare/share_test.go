package sessionshare

import (
	"context"
	"testing"

	"nauta-sdk/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testSession() map[string]string {
	return map[string]string{
		"username":       "alice@nauta.com.cu",
		"CSRFHW":         "1fe3ee0634195096337177a0994723fb",
		"wlanuserip":     "10.190.20.96",
		"ATTRIBUTE_UUID": "B2F6AAB9A9868BABC0BDC6B7A235ABE2",
	}
}

func TestShareHandOff(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:sessionshare")
	defer cleanup()
	ctx := context.Background()

	session := testSession()
	server, err := Share(ctx, session, "127.0.0.1:0")
	require.NoError(t, err)
	require.Len(t, server.Code, 4)

	received, err := Fetch(ctx, server.Addr, server.Code)
	require.NoError(t, err)
	require.NoError(t, server.Wait())

	if diff := cmp.Diff(session, received); diff != "" {
		t.Fatalf("session mismatch:\n%s", diff)
	}
}

func TestShareWrongCode(t *testing.T) {
	ctx := context.Background()

	server, err := Share(ctx, testSession(), "127.0.0.1:0")
	require.NoError(t, err)

	_, err = Fetch(ctx, server.Addr, "XXXX-nope")
	require.ErrorIs(t, err, ErrInvalidShareCode)
	require.ErrorIs(t, server.Wait(), ErrInvalidShareCode)
}

func TestShareIncompleteSession(t *testing.T) {
	session := testSession()
	delete(session, "ATTRIBUTE_UUID")

	_, err := Share(context.Background(), session, "127.0.0.1:0")
	require.ErrorIs(t, err, ErrIncompleteSession)
}

func TestShareAborted(t *testing.T) {
	server, err := Share(context.Background(), testSession(), "127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, server.Close())
	require.Error(t, server.Wait())
}
