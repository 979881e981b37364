package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Havana")
	if err != nil {
		panic(err)
	}
}

// the portals render every timestamp in cuban local time, so dates must
// be interpreted in America/Havana no matter where the client runs.
func Now() time.Time {
	return time.Now().In(Location)
}
