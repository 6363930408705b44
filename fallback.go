package flowvers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"gopkg.in/yaml.v3"
)

// SnapshotTemplate is the archive snapshot file committed to the repository.
// With `<file> export-subst` in .gitattributes, git archive replaces the
// placeholders with the values of the exported commit.
const SnapshotTemplate = `# Expanded by git archive (export-subst). Do not edit.
shorthash: '$Format:%h$'
fullhash: '$Format:%H$'
branch: '$Format:%D$'
describe: '$Format:%(describe:tags=true)$'
`

// GitAttributesLine returns the .gitattributes entry enabling expansion of
// the snapshot file.
func GitAttributesLine(snapshotPath string) string {
	return snapshotPath + " export-subst"
}

var describeRe = regexp.MustCompile(`^(.*)-(\d+)-g[0-9a-f]+$`)

// Snapshot holds the commit data captured by git archive when the source
// tree was exported.
type Snapshot struct {
	ShortHash string `yaml:"shorthash"`
	FullHash  string `yaml:"fullhash"`
	// Branch is the ref descriptor of the exported commit, e.g.
	// "HEAD -> master, origin/master, tag: v1.4.0".
	Branch   string `yaml:"branch"`
	Describe string `yaml:"describe,omitempty"`
}

// LoadSnapshot reads and validates a snapshot file. A missing file, an
// unparsable one, or one whose placeholders were never expanded all return
// ErrArchiveSnapshotMissing.
func LoadSnapshot(fs billy.Filesystem, name string) (*Snapshot, error) {
	f, err := fs.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArchiveSnapshotMissing, name)
		}
		return nil, fmt.Errorf("%w: opening %s: %v", ErrArchiveSnapshotMissing, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrArchiveSnapshotMissing, name, err)
	}

	snapshot := &Snapshot{}
	if err := yaml.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrArchiveSnapshotMissing, name, err)
	}

	if err := snapshot.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveSnapshotMissing, name, err)
	}

	return snapshot, nil
}

// WriteSnapshot writes a precomputed snapshot, for exports that are not
// produced by git archive.
func WriteSnapshot(fs billy.Filesystem, name string, snapshot Snapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return writeFile(fs, name, string(data))
}

// WriteSnapshotTemplate writes SnapshotTemplate to name.
func WriteSnapshotTemplate(fs billy.Filesystem, name string) error {
	return writeFile(fs, name, SnapshotTemplate)
}

func (s *Snapshot) validate() error {
	if s.ShortHash == "" || s.FullHash == "" {
		return errors.New("hash fields are empty")
	}
	for _, v := range []string{s.ShortHash, s.FullHash, s.Branch} {
		if strings.Contains(v, "$Format:") {
			return errors.New("placeholders were not expanded")
		}
	}
	// An unexpanded %(describe) is harmless; it only loses the distance.
	if strings.Contains(s.Describe, "$Format:") {
		s.Describe = ""
	}
	return nil
}

// ParseBranchDescriptor extracts the branch name and tag names from a ref
// descriptor such as "HEAD -> master, origin/master, tag: v1.4.0" or
// "HEAD, origin/release/2.0". A local "HEAD -> x" entry wins over remote
// refs. The branch is empty when no entry names a branch; bare tokens that
// are neither a git-flow branch nor a remote ref are ignored.
func ParseBranchDescriptor(descriptor, releasePrefix, hotfixPrefix string) (branch string, tags []string) {
	var remotes []string
	for _, part := range strings.Split(descriptor, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "" || part == "HEAD" || part == "grafted":
		case strings.HasPrefix(part, "tag: "):
			tags = append(tags, strings.TrimPrefix(part, "tag: "))
		case strings.HasPrefix(part, "HEAD -> "):
			if branch == "" {
				branch = strings.TrimPrefix(part, "HEAD -> ")
			}
		default:
			remotes = append(remotes, part)
		}
	}
	if branch != "" {
		return branch, tags
	}

	for _, ref := range remotes {
		// A ref that already classifies is a local branch name.
		if Classify(ref, releasePrefix, hotfixPrefix) != CategoryOther {
			return ref, tags
		}
		// Anything else must be remote/branch.
		remote, name, ok := strings.Cut(ref, "/")
		if !ok || remote == "" || name == "" || name == "HEAD" {
			continue
		}
		return name, tags
	}

	return "", tags
}

// tagMatch derives the version tag of the exported commit, preferring the
// describe field over tags named in the descriptor.
func (s *Snapshot) tagMatch(descriptorTags []string, pattern *regexp.Regexp) (*RawTagMatch, error) {
	if s.Describe != "" {
		name, distance := s.Describe, uint64(0)
		if m := describeRe.FindStringSubmatch(s.Describe); m != nil {
			name = m[1]
			if n, err := strconv.ParseUint(m[2], 10, 64); err == nil {
				distance = n
			}
		}
		if pattern.MatchString(name) {
			if match, ok := ParseTagName(name); ok {
				match.Distance = distance
				return &match, nil
			}
		}
	}

	var candidates []string
	for _, tag := range descriptorTags {
		if !pattern.MatchString(tag) {
			continue
		}
		if _, ok := ParseTagName(tag); ok {
			candidates = append(candidates, tag)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoMatchingTag
	}

	match, _ := ParseTagName(preferredTag(candidates))
	match.Distance = 0
	return &match, nil
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
