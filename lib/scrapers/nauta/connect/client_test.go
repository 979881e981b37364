package connect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nauta-sdk/lib/scrapers/nauta"
	"nauta-sdk/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const attributeUuid = "B2F6AAB9A9868BABC0BDC6B7A235ABE2"

// fakePortal mimics the captive gateway: landing relay, login form,
// query and logout servlets.
type fakePortal struct {
	server     *httptest.Server
	captive    bool
	loginPosts int
}

func newFakePortal(t *testing.T) *fakePortal {
	p := &fakePortal{captive: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		if !p.captive {
			fmt.Fprint(w, `<html><body>actual internet content</body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body>
<p>redirected by %s</p>
<form action="%s/landing" method="POST">
	<input type="hidden" name="wlanuserip" value="10.190.20.96"/>
	<input type="hidden" name="firsturl" value="www.cubadebate.cu"/>
</form>
</body></html>`, nauta.ConnectDomain, p.server.URL)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<form id="formulario" action="%s/LoginServlet" method="POST">
	<input type="hidden" name="CSRFHW" value="1fe3ee0634195096337177a0994723fb"/>
	<input type="hidden" name="wlanuserip" value="10.190.20.96"/>
	<input type="text" name="username" value=""/>
</form>
</body></html>`, p.server.URL)
	})
	mux.HandleFunc("/LoginServlet", func(w http.ResponseWriter, r *http.Request) {
		p.loginPosts++
		r.ParseForm()
		if r.PostForm.Get("CSRFHW") == "" || r.PostForm.Get("wlanuserip") == "" {
			http.Error(w, "bad handshake", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("password") != "secret" {
			fmt.Fprint(w, `<html><body>
<script type="text/javascript">alert("Entre el nombre de usuario y contraseña correctos.")</script>
</body></html>`)
			return
		}
		p.captive = false
		fmt.Fprintf(w, `<html><body>
<script type="text/javascript">
window.location.href = "%s/online.do?fooid=ATTRIBUTE_UUID=%s&CSRFHW=1fe3ee0634195096337177a0994723fb";
</script>
</body></html>`, p.server.URL, attributeUuid)
	})
	mux.HandleFunc("/EtecsaQueryServlet", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("op") == "getLeftTime" {
			if r.PostForm.Get("ATTRIBUTE_UUID") != attributeUuid {
				fmt.Fprint(w, "errorop")
				return
			}
			fmt.Fprint(w, "04:32:10")
			return
		}
		fmt.Fprint(w, `<html><body>
<table id="sessioninfo"><tbody>
	<tr><td class="key">Estado</td><td>Activa</td></tr>
	<tr><td class="key">Crédito</td><td>12,50 CUP</td></tr>
	<tr><td class="key">Expira</td><td>31/12/2026</td></tr>
	<tr><td class="key">Áreas</td><td>Todas</td></tr>
</tbody></table>
<table id="sesiontraza"><tbody>
	<tr><td>01/08/2026 10:00:00</td><td>01/08/2026 11:00:00</td><td>01:00:00</td></tr>
</tbody></table>
</body></html>`)
	})
	mux.HandleFunc("/LogoutServlet", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ATTRIBUTE_UUID") != attributeUuid {
			fmt.Fprint(w, "FAILURE")
			return
		}
		p.captive = true
		fmt.Fprint(w, "logoutcallback('SUCCESS');")
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func newTestClient(t *testing.T, portal *fakePortal, username, password string) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:  portal.server.URL,
		CheckUrl: portal.server.URL + "/check",
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return client
}

func TestConnectLifecycle(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/nauta/connect")
	defer cleanup()
	ctx := context.Background()

	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")

	connected, err := client.IsConnected(ctx)
	require.NoError(t, err)
	require.False(t, connected)
	require.False(t, client.LoggedIn())

	err = client.Connect(ctx)
	require.NoError(t, err)
	require.True(t, client.LoggedIn())

	connected, err = client.IsConnected(ctx)
	require.NoError(t, err)
	require.True(t, connected)

	left, err := client.RemainingTime(ctx)
	require.NoError(t, err)
	require.Equal(t, 4*time.Hour+32*time.Minute+10*time.Second, left)

	err = client.Disconnect(ctx)
	require.NoError(t, err)
	require.False(t, client.LoggedIn())

	// the attribute token is gone, a second disconnect is impossible
	err = client.Disconnect(ctx)
	require.ErrorIs(t, err, nauta.ErrNotLoggedIn)
}

func TestConnectBadCredentials(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "wrong")

	err := client.Connect(context.Background())
	require.ErrorIs(t, err, nauta.ErrLogin)
	var portalErr *nauta.PortalError
	require.ErrorAs(t, err, &portalErr)
	require.False(t, client.LoggedIn())
}

func TestConnectMissingCredentials(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "", "")

	err := client.Connect(context.Background())
	require.ErrorIs(t, err, nauta.ErrLogin)
	require.Zero(t, portal.loginPosts)
}

func TestConnectWhileAlreadyConnected(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	posts := portal.loginPosts

	err := client.Connect(ctx)
	require.ErrorIs(t, err, nauta.ErrLogin)
	require.ErrorIs(t, err, nauta.ErrAlreadyConnected)
	// no login post may go out for the refused attempt
	require.Equal(t, posts, portal.loginPosts)
}

func TestSessionExportRoundTrip(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	dump, err := client.Export()
	require.NoError(t, err)

	restored := newTestClient(t, portal, "", "")
	require.NoError(t, restored.Load(dump))
	require.True(t, restored.LoggedIn())

	dump2, err := restored.Export()
	require.NoError(t, err)
	if diff := cmp.Diff(dump, dump2); diff != "" {
		t.Fatalf("session round trip mismatch:\n%s", diff)
	}

	// the restored session can disconnect the original login
	require.NoError(t, restored.Disconnect(ctx))
}

func TestSessionLoadMissingKey(t *testing.T) {
	portal := newFakePortal(t)
	ctx := context.Background()

	for _, missing := range []string{"username", "CSRFHW", "wlanuserip", "ATTRIBUTE_UUID"} {
		client := newTestClient(t, portal, "user@nauta.com.cu", "secret")
		require.NoError(t, client.Connect(ctx))
		dump, err := client.Export()
		require.NoError(t, err)
		delete(dump, missing)

		fresh := newTestClient(t, portal, "", "")
		err = fresh.Load(dump)
		require.ErrorIs(t, err, nauta.ErrLoadSession, missing)
		// nothing may be restored on failure
		require.False(t, fresh.LoggedIn())
		_, err = fresh.Export()
		require.ErrorIs(t, err, nauta.ErrNotLoggedIn)

		require.NoError(t, client.Disconnect(ctx))
	}
}

func TestExportWhileLoggedOut(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")
	_, err := client.Export()
	require.ErrorIs(t, err, nauta.ErrNotLoggedIn)
}

func TestInfo(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")

	info, err := client.Info(context.Background())
	require.NoError(t, err)
	require.Equal(t, AccountInfo{
		AccountStatus:  "Activa",
		Credit:         "12,50 CUP",
		ExpirationDate: "31/12/2026",
		AccessAreas:    "Todas",
	}, info.Account)
	require.Len(t, info.LastConnections, 1)
	require.Equal(t, "01:00:00", info.LastConnections[0].Time)
}

func TestRemainingTimeWhileLoggedOut(t *testing.T) {
	portal := newFakePortal(t)
	client := newTestClient(t, portal, "user@nauta.com.cu", "secret")
	_, err := client.RemainingTime(context.Background())
	require.ErrorIs(t, err, nauta.ErrNotLoggedIn)
}
