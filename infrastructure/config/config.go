// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/kaspanet/go-secp256k1"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/version"
)

const (
	defaultConfigFilename = "viewd.conf"
	defaultEnvFilename    = ".env"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "viewd.log"
	defaultErrLogFilename = "viewd_err.log"

	// DbTypeLevelDB selects the goleveldb backend
	DbTypeLevelDB = "leveldb"

	// DbTypeBadger selects the badger backend
	DbTypeBadger = "badger"

	defaultDbType = DbTypeLevelDB

	// DefaultDbCacheSizeMiB is the default size of the leveldb block cache
	DefaultDbCacheSizeMiB = 256
)

var (
	// DefaultAppDir is the default home directory for viewd.
	DefaultAppDir = btcutil.AppDataDir("viewd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultEnvFile    = filepath.Join(DefaultAppDir, defaultEnvFilename)
)

// Flags defines the configuration options for viewd.
//
// Every option can also be given as a VIEWD_* environment variable, either
// exported or written to the env file. Command line options take precedence
// over environment variables, which take precedence over the config file.
type Flags struct {
	ShowVersion    bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile     string `short:"C" long:"configfile" description:"Path to configuration file"`
	EnvFile        string `long:"envfile" description:"Path to a file of VIEWD_* environment variables to load"`
	AppDir         string `short:"b" long:"appdir" description:"Directory to store data" env:"VIEWD_APPDIR"`
	LogDir         string `long:"logdir" description:"Directory to log output." env:"VIEWD_LOGDIR"`
	DbType         string `long:"dbtype" description:"Database backend to use for the ledger" choice:"leveldb" choice:"badger" env:"VIEWD_DBTYPE"`
	DbCacheSizeMiB int    `long:"dbcachesize" description:"Size of the leveldb block cache in MiB" env:"VIEWD_DBCACHESIZE"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems" env:"VIEWD_DEBUGLEVEL"`
	APIListen      string `long:"apilisten" description:"Interface/port to listen for API connections (default port: 17110, testnet: 17210, simnet: 17510)" env:"VIEWD_APILISTEN"`
	NoAPI          bool   `long:"noapi" description:"Disable the API server" env:"VIEWD_NOAPI"`
	ValidatorKey   string `long:"validatorkey" description:"Hex encoded Schnorr private key this node signs its votes with" default-mask:"-" env:"VIEWD_VALIDATORKEY"`
	SkipPoW        bool   `long:"skippow" description:"Do not check the proof of work of blocks (simnet only)" env:"VIEWD_SKIPPOW"`
	Profile        string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65535" env:"VIEWD_PROFILE"`
	NetworkFlags
}

// Config defines the configuration options for viewd after loading.
type Config struct {
	*Flags
	ServiceOptions *ServiceOptions

	// ValidatorKeyPair is nil when no validator key is configured
	ValidatorKeyPair *secp256k1.SchnorrKeyPair

	LogFile    string
	ErrLogFile string
}

// ServiceOptions defines the configuration options for the daemon as a service on
// Windows.
type ServiceOptions struct {
	ServiceCommand string `short:"s" long:"service" description:"Service command {install, remove, start, stop}"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfgFlags *Flags, serviceOpts *ServiceOptions, options flags.Options) *flags.Parser {
	parser := flags.NewParser(cfgFlags, options)
	if runtime.GOOS == "windows" {
		parser.AddGroup("Service Options", "Service Options", serviceOpts)
	}
	return parser
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:     defaultConfigFile,
		DebugLevel:     defaultLogLevel,
		AppDir:         DefaultAppDir,
		DbType:         defaultDbType,
		DbCacheSizeMiB: DefaultDbCacheSizeMiB,
	}
}

// DefaultConfig returns the default viewd configuration
func DefaultConfig() *Config {
	config := &Config{
		Flags:          defaultFlags(),
		ServiceOptions: &ServiceOptions{},
	}
	config.ActiveNetParams = &chainconfig.MainnetParams
	return config
}

// LoadConfig initializes and parses the config using a config file, an env
// file and command line options.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config or env file
// 	3) Load the env file so its VIEWD_* variables act as option defaults
// 	4) Load configuration file overwriting defaults with any specified options
// 	5) Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfg, _, err := loadConfig(os.Args[1:])
	return cfg, err
}

func loadConfig(args []string) (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Service options which are only added on Windows.
	serviceOpts := &ServiceOptions{}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := newConfigParser(&preCfg, serviceOpts, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	err = loadEnvFile(preCfg.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env file: %s\n", err)
		return nil, nil, err
	}

	// Load additional config from file. A missing config file is fine.
	parser := newConfigParser(cfgFlags, serviceOpts, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	cfg := &Config{
		Flags:          cfgFlags,
		ServiceOptions: serviceOpts,
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	funcName := "loadConfig"

	// Append the network type to the app directory so it is "namespaced"
	// per network. All data is specific to a network, so namespacing the
	// directory means each piece of serialized data does not have to
	// worry about changing names per network.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.AppDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name)

	// Logs directory is usually under the app directory, but can be overridden.
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDir, defaultLogDirname)
	}
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogFile = filepath.Join(cfg.LogDir, defaultLogFilename)
	cfg.ErrLogFile = filepath.Join(cfg.LogDir, defaultErrLogFilename)

	err = os.MkdirAll(cfg.AppDir, 0700)
	if err != nil {
		err := errors.Errorf("%s: failed to create app directory: %s", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := logger.ParseAndSetLogLevels(cfg.DebugLevel); err != nil {
		err := errors.Errorf("%s: %s", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	if cfg.DbCacheSizeMiB <= 0 {
		err := errors.Errorf("%s: dbcachesize must be positive", funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	if cfg.SkipPoW && cfg.NetParams().Name != "simnet" {
		err := errors.Errorf("%s: skippow is allowed only on simnet", funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			err := errors.Errorf("%s: the profile port must be between 1024 and 65535", funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	if cfg.APIListen == "" {
		cfg.APIListen = net.JoinHostPort("localhost", cfg.NetParams().APIPort)
	}

	if cfg.ValidatorKey != "" {
		cfg.ValidatorKeyPair, err = ParseValidatorKey(cfg.ValidatorKey)
		if err != nil {
			err := errors.Wrapf(err, "%s: invalid validatorkey", funcName)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	return cfg, remainingArgs, nil
}

// loadEnvFile loads the given env file into the process environment. When
// no file is given, the default env file is loaded if it exists. Variables
// that are already set are not overridden.
func loadEnvFile(envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return nil
		}
		envFile = defaultEnvFile
	}
	return errors.WithStack(godotenv.Load(cleanAndExpandPath(envFile)))
}

// ParseValidatorKey parses a hex encoded Schnorr private key
func ParseValidatorKey(validatorKeyHex string) (*secp256k1.SchnorrKeyPair, error) {
	privateKeyBytes, err := hex.DecodeString(strings.TrimSpace(validatorKeyHex))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKeyBytes)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return keyPair, nil
}
