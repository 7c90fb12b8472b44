package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		panic(err)
	}
}

// force the parish timezone regardless of where the server runs, so
// date math based on <time.Time>.Year()/Month()/Day() stays stable
func Now() time.Time {
	return time.Now().In(Location)
}
