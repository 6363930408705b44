package flowvers

import (
	"strconv"
	"strings"
)

// Render formats v as "major.minor[.patch][-flag[.]distance]".
//
// The patch is dropped when zero. Flag and distance are dropped together only
// for a master commit sitting exactly on its tag; everywhere else the distance
// is written even when zero, and the "." separator only follows a non-empty
// flag ("1.4.2-3", "1.5-alpha.7").
func Render(v VersionComponents) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v.Major, 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(v.Minor, 10))

	if v.Patch != 0 {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(v.Patch, 10))
	}

	if v.Category == CategoryMaster && v.Distance == 0 {
		return b.String()
	}

	b.WriteByte('-')
	if v.Flag != "" {
		b.WriteString(v.Flag)
		b.WriteByte('.')
	}
	b.WriteString(strconv.FormatUint(v.Distance, 10))

	return b.String()
}
