package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const formPage = `
<html><body>
<form action="https://secure.example.net/post" method="POST">
	<input type="hidden" name="wlanuserip" value="10.0.0.12"/>
	<input type="hidden" name="CSRFHW" value="abc123"/>
	<input type="text" name="username" value=""/>
	<input type="submit" value="go"/>
</form>
<form id="formulario" action="/LoginServlet">
	<input type="hidden" name="CSRFHW" value="def456"/>
</form>
</body></html>`

func TestFirstForm(t *testing.T) {
	doc, err := Parse([]byte(formPage))
	require.NoError(t, err)

	form := FirstForm(doc, "")
	require.NotNil(t, form)
	require.Equal(t, "https://secure.example.net/post", form.Action)
	require.Equal(t, map[string]string{
		"wlanuserip": "10.0.0.12",
		"CSRFHW":     "abc123",
		"username":   "",
	}, form.Fields)

	form = FirstForm(doc, "form#formulario")
	require.NotNil(t, form)
	require.Equal(t, "/LoginServlet", form.Action)
	require.Equal(t, "def456", form.Fields["CSRFHW"])

	require.Nil(t, FirstForm(doc, "form.missing"))
}

func TestInputValue(t *testing.T) {
	doc, err := Parse([]byte(`<form><input name="csrf" value="tok"/></form>`))
	require.NoError(t, err)
	require.Equal(t, "tok", InputValue(doc, "csrf"))
	require.Equal(t, "", InputValue(doc, "nope"))
}

func TestTableRows(t *testing.T) {
	doc, err := Parse([]byte(`
<table class="responsive-table"><tbody>
	<tr><td> a </td><td>b</td></tr>
	<tr><td>c</td><td>d</td></tr>
</tbody></table>`))
	require.NoError(t, err)

	rows := TableRows(doc, ".responsive-table > tbody")
	require.Len(t, rows, 2)
	require.Equal(t, []string{"a", "b"}, CellText(rows[0]))
	require.Equal(t, []string{"c", "d"}, CellText(rows[1]))
}

func TestLastScriptText(t *testing.T) {
	doc, err := Parse([]byte(`
<html><body>
<script type="text/javascript">first();</script>
<script type="text/javascript"> alert("boom") </script>
</body></html>`))
	require.NoError(t, err)
	require.Equal(t, `alert("boom")`, LastScriptText(doc))

	doc, err = Parse([]byte(`<html><body><p>no scripts</p></body></html>`))
	require.NoError(t, err)
	require.Equal(t, "", LastScriptText(doc))
}

func TestLastScriptTextIgnoresUntypedScripts(t *testing.T) {
	doc, err := Parse([]byte(`
<html><body>
<script type="text/javascript"> alert("boom") </script>
<script>analytics();</script>
</body></html>`))
	require.NoError(t, err)
	require.Equal(t, `alert("boom")`, LastScriptText(doc))

	doc, err = Parse([]byte(`
<html><body>
<script>analytics();</script>
</body></html>`))
	require.NoError(t, err)
	require.Equal(t, "", LastScriptText(doc))
}
