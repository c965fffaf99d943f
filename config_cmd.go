package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# speech engine: auto, command, or noop
engine: "auto"
# utterance language (BCP 47 tag)
language: "vi-VN"
# speech rate multiplier (1.0 = normal)
rate: 0.5
# voice pitch multiplier (1.0 = normal)
pitch: 1.0

# bound on the engine voice-list query
voice_timeout: "3s"
# how long after dispatch the speaking flag clears
settle_delay: "1s"

# discovery simulation
scan_delay: "800ms"
connect_delay: "300ms"
# probability of extra devices appearing in a scan (0 disables)
extra_device_chance: 0.7

# play a short chime before each announcement
chime: true

# speaker used by one-shot "notifin speak"
default_device: "NotiFin SoundBox"

# optional user phrase dictionary, reloaded on change
# phrasebook: "~/.notifin/phrases.yml"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the notifin config file",
	Long:    paragraph(fmt.Sprintf("\n%s the notifin config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("notifin config\nnotifin config --config path/to/notifin.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("NotiFin", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if configFile == "" {
			home, err := homedir.Dir()
			if err != nil {
				return fmt.Errorf("unable to find home directory: %w", err)
			}
			configFile = filepath.Join(home, ".config", "notifin", "notifin.yml")
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
