package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jaxxstorm/flowvers"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Repo          string `short:"r" help:"Repository path (default: current directory)"`
	Config        string `short:"c" help:"YAML configuration file"`
	EnvFile       string `help:"Load environment variables from a dotenv file"`
	TagPattern    string `help:"Regex version tags must match (default: '^v[0-9]+\\.[0-9]+')"`
	RCTagPattern  string `name:"rc-tag-pattern" help:"Regex release-candidate start tags must match (default: '^rc-[0-9]+\\.[0-9]+')"`
	ReleasePrefix string `help:"Release branch prefix (default: 'release/')"`
	HotfixPrefix  string `help:"Hotfix branch prefix (default: 'hotfix/')"`
	DefaultBranch string `help:"Branch name to assume when HEAD is detached"`
	ReleaseType   string `help:"Resolve with master rules when the branch cannot be determined"`
	MinVersion    string `help:"Minimum version (e.g. '2.1.0')"`
	Snapshot      string `help:"Archive snapshot file (default: '.git_archival.yml')"`
	Format        string `short:"f" default:"string" enum:"string,json,yaml,env" help:"Output format"`
	JSON          bool   `short:"j" help:"Output as JSON"`
	InitArchival  bool   `help:"Write the archive snapshot template and its .gitattributes entry"`
	LogLevel      string `help:"Log level: debug, info, warn, error"`
	ShowVersion   bool   `help:"Show version information" name:"version"`

	Out io.Writer `kong:"-"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("flowvers"),
		kong.Description("Derive git-flow versions from Git repository state or archive snapshots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.Out == nil {
		c.Out = os.Stdout
	}

	// Handle version flag
	if c.ShowVersion {
		return c.showVersion()
	}

	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	s, err := loadSettings(c.Config, c.EnvFile)
	if err != nil {
		return err
	}
	s.override(c)

	if c.InitArchival {
		return c.initArchival(osfs.New(repoPath), s.Snapshot)
	}

	return c.resolveVersion(repoPath, s)
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "flowvers",
	}

	if c.JSON {
		return json.NewEncoder(c.Out).Encode(versionInfo)
	}

	fmt.Fprintf(c.Out, "flowvers version %s\n", Version)
	return nil
}

func (c *CLI) resolveVersion(repoPath string, s *settings) error {
	logger, err := newLogger(s.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := s.resolveConfig(repoPath)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	version, err := flowvers.Resolve(cfg)
	if err != nil {
		return fmt.Errorf("resolving version: %w", err)
	}

	if !version.Success {
		logger.Warn("Version resolved without commit information", zap.String("version", version.String()))
	}

	format := c.Format
	if c.JSON {
		format = "json"
	}
	return writeVersion(c.Out, version.Record(), format)
}

func (c *CLI) initArchival(fs billy.Filesystem, snapshotPath string) error {
	if snapshotPath == "" {
		snapshotPath = flowvers.DefaultSnapshotPath
	}

	if err := flowvers.WriteSnapshotTemplate(fs, snapshotPath); err != nil {
		return fmt.Errorf("writing snapshot template: %w", err)
	}

	added, err := ensureGitAttributes(fs, flowvers.GitAttributesLine(snapshotPath))
	if err != nil {
		return fmt.Errorf("updating .gitattributes: %w", err)
	}

	fmt.Fprintf(c.Out, "Wrote %s\n", snapshotPath)
	if added {
		fmt.Fprintf(c.Out, "Added %q to .gitattributes\n", flowvers.GitAttributesLine(snapshotPath))
	}
	return nil
}

// ensureGitAttributes appends line to .gitattributes unless already present.
func ensureGitAttributes(fs billy.Filesystem, line string) (bool, error) {
	const name = ".gitattributes"

	var existing string
	if f, err := fs.Open(name); err == nil {
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return false, err
		}
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return false, err
	}

	for _, l := range strings.Split(existing, "\n") {
		if strings.TrimSpace(l) == line {
			return false, nil
		}
	}

	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}

	f, err := fs.Create(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Write([]byte(existing + line + "\n"))
	return err == nil, err
}

func writeVersion(w io.Writer, record flowvers.Record, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return json.NewEncoder(w).Encode(record)
	case "yaml":
		data, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "env":
		for _, field := range record.Fields() {
			if _, err := fmt.Fprintf(w, "%s=%s\n", field.Name, field.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintln(w, record.String)
		return err
	}
}
