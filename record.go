package flowvers

import (
	"strconv"
)

// Record is the flat form of a resolved version handed to code generators.
type Record struct {
	Major     uint64 `json:"VERSION_MAJOR" yaml:"VERSION_MAJOR"`
	Minor     uint64 `json:"VERSION_MINOR" yaml:"VERSION_MINOR"`
	Patch     uint64 `json:"VERSION_PATCH" yaml:"VERSION_PATCH"`
	Flag      string `json:"VERSION_FLAG" yaml:"VERSION_FLAG"`
	Distance  uint64 `json:"VERSION_DISTANCE" yaml:"VERSION_DISTANCE"`
	ShortHash string `json:"VERSION_SHORTHASH" yaml:"VERSION_SHORTHASH"`
	FullHash  string `json:"VERSION_FULLHASH" yaml:"VERSION_FULLHASH"`
	String    string `json:"VERSION_STRING" yaml:"VERSION_STRING"`
	IsDirty   bool   `json:"VERSION_ISDIRTY" yaml:"VERSION_ISDIRTY"`
	Branch    string `json:"VERSION_BRANCH" yaml:"VERSION_BRANCH"`
	Success   bool   `json:"VERSION_SUCCESS" yaml:"VERSION_SUCCESS"`
}

// Record flattens v.
func (v VersionComponents) Record() Record {
	return Record{
		Major:     v.Major,
		Minor:     v.Minor,
		Patch:     v.Patch,
		Flag:      v.Flag,
		Distance:  v.Distance,
		ShortHash: v.ShortHash,
		FullHash:  v.FullHash,
		String:    Render(v),
		IsDirty:   v.IsDirty,
		Branch:    v.BranchName,
		Success:   v.Success,
	}
}

// Field is a single name/value pair of a Record.
type Field struct {
	Name  string
	Value string
}

// Fields returns the record as name/value pairs in a fixed order.
func (r Record) Fields() []Field {
	return []Field{
		{"VERSION_MAJOR", strconv.FormatUint(r.Major, 10)},
		{"VERSION_MINOR", strconv.FormatUint(r.Minor, 10)},
		{"VERSION_PATCH", strconv.FormatUint(r.Patch, 10)},
		{"VERSION_FLAG", r.Flag},
		{"VERSION_DISTANCE", strconv.FormatUint(r.Distance, 10)},
		{"VERSION_SHORTHASH", r.ShortHash},
		{"VERSION_FULLHASH", r.FullHash},
		{"VERSION_STRING", r.String},
		{"VERSION_ISDIRTY", strconv.FormatBool(r.IsDirty)},
		{"VERSION_BRANCH", r.Branch},
		{"VERSION_SUCCESS", strconv.FormatBool(r.Success)},
	}
}
