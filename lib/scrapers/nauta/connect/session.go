package connect

import (
	"fmt"

	"nauta-sdk/lib/scrapers/nauta"
)

// the exact keys of the exported session map. missing any of them makes
// a dump unloadable; partial restores are not permitted.
var sessionKeys = []string{"username", "CSRFHW", "wlanuserip", "ATTRIBUTE_UUID"}

// Export dumps the open session so another process (or device) can
// disconnect it later without redoing the handshake.
func (c *Client) Export() (map[string]string, error) {
	if !c.LoggedIn() {
		return nil, nauta.ErrNotLoggedIn
	}
	return map[string]string{
		"username":       c.username,
		"CSRFHW":         c.csrfHw,
		"wlanuserip":     c.wlanUserIp,
		"ATTRIBUTE_UUID": c.attributeUuid,
	}, nil
}

// Load restores a previously exported session. On any missing key the
// client is left untouched.
func (c *Client) Load(data map[string]string) error {
	for _, key := range sessionKeys {
		if data[key] == "" {
			return fmt.Errorf("%w: missing key %q", nauta.ErrLoadSession, key)
		}
	}

	c.username = data["username"]
	c.csrfHw = data["CSRFHW"]
	c.wlanUserIp = data["wlanuserip"]
	c.attributeUuid = data["ATTRIBUTE_UUID"]
	return nil
}
