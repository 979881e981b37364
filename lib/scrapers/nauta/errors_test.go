package nauta

import (
	"errors"
	"testing"

	"nauta-sdk/lib/htmlutil"

	"github.com/stretchr/testify/require"
)

func checkHtml(t *testing.T, portal Portal, page string) error {
	t.Helper()
	doc, err := htmlutil.Parse([]byte(page))
	require.NoError(t, err)
	return portal.CheckDocument(doc)
}

func TestConnectPortalAlert(t *testing.T) {
	err := checkHtml(t, Connect, `<html><body>
<script type="text/javascript">alert("Entre el nombre de usuario y contraseña correctos.")</script>
</body></html>`)

	var portalErr *PortalError
	require.True(t, errors.As(err, &portalErr))
	require.Equal(t, Connect, portalErr.Portal)
	require.Len(t, portalErr.Messages, 1)
}

func TestConnectPortalNoBanner(t *testing.T) {
	require.NoError(t, checkHtml(t, Connect, `<html><body>
<script type="text/javascript">doSomethingBenign();</script>
</body></html>`))
	require.NoError(t, checkHtml(t, Connect, `<html><body><p>no script</p></body></html>`))
}

func TestConnectPatternIgnoredOnUserPortal(t *testing.T) {
	// each portal only recognizes its own failure banner
	require.NoError(t, checkHtml(t, User, `<html><body>
<script type="text/javascript">alert("not a user portal banner")</script>
</body></html>`))
}

func TestUserPortalSingleError(t *testing.T) {
	err := checkHtml(t, User, `<html><body>
<script type="text/javascript">toastr.error('<ul><li class="msg_error">Operación fallida.</li></ul>')</script>
</body></html>`)

	var portalErr *PortalError
	require.True(t, errors.As(err, &portalErr))
	require.Equal(t, []string{"Operación fallida."}, portalErr.Messages)
}

func TestUserPortalMultipleErrors(t *testing.T) {
	err := checkHtml(t, User, `<html><body>
<script type="text/javascript">toastr.error('<ul><li class="msg_error">Se han detectado algunos errores.<ul class="sub-message-list"><li class="sub-message">Usuario inválido.</li><li class="sub-message">Captcha incorrecto.</li></ul></li></ul>')</script>
</body></html>`)

	var portalErr *PortalError
	require.True(t, errors.As(err, &portalErr))
	// the aggregate preamble is replaced with the individual messages
	require.Equal(t, []string{"Usuario inválido.", "Captcha incorrecto."}, portalErr.Messages)
}

func TestUserPortalOnlyLastScriptCounts(t *testing.T) {
	require.NoError(t, checkHtml(t, User, `<html><body>
<script type="text/javascript">toastr.error('<ul><li class="msg_error">stale banner</li></ul>')</script>
<script type="text/javascript">renderDashboard();</script>
</body></html>`))
}
