package ops

import (
	"strings"
	"time"

	"ibgw/internal/chaos"
	"ibgw/internal/service"
	"ibgw/pkg/conn"

	"github.com/spf13/viper"
	"github.com/yanun0323/errors"
)

// EnvPrefix prefixes environment overrides: journal.host is read from IBGW_JOURNAL_HOST.
const EnvPrefix = "IBGW"

// Config mirrors the JSON config layout.
type Config struct {
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
	Accounts  AccountsConfig  `mapstructure:"accounts"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	Chaos     ChaosConfig     `mapstructure:"chaos"`
}

// GatewayConfig describes the bridge connection. ConnectTimeout bounds the
// wait for the first connected event, in milliseconds.
type GatewayConfig struct {
	URL            string `mapstructure:"url"`
	QueueSize      int    `mapstructure:"queue_size"`
	FirstID        uint64 `mapstructure:"first_id"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
}

// TimeoutsConfig holds per call family timeouts in milliseconds. Zero disables the timeout.
type TimeoutsConfig struct {
	CurrentTime         int `mapstructure:"current_time"`
	ContractDetails     int `mapstructure:"contract_details"`
	FundamentalData     int `mapstructure:"fundamental_data"`
	HistoricalData      int `mapstructure:"historical_data"`
	RealTimeBars        int `mapstructure:"real_time_bars"`
	MktData             int `mapstructure:"mkt_data"`
	MktDepth            int `mapstructure:"mkt_depth"`
	ScannerParameters   int `mapstructure:"scanner_parameters"`
	ScannerSubscription int `mapstructure:"scanner_subscription"`
	AccountSummary      int `mapstructure:"account_summary"`
	AccountUpdates      int `mapstructure:"account_updates"`
	Executions          int `mapstructure:"executions"`
	OpenOrders          int `mapstructure:"open_orders"`
	Positions           int `mapstructure:"positions"`
	OrderIDs            int `mapstructure:"order_ids"`
	PlaceOrder          int `mapstructure:"place_order"`
	ExerciseOptions     int `mapstructure:"exercise_options"`
	DisplayGroups       int `mapstructure:"display_groups"`
}

// AccountsConfig selects what the account model streams.
type AccountsConfig struct {
	Group   string `mapstructure:"group"`
	Tags    string `mapstructure:"tags"`
	Account string `mapstructure:"account"`
}

// JournalConfig describes the request journal database.
type JournalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	DSN       string `mapstructure:"dsn"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	SSLMode   string `mapstructure:"ssl_mode"`
	QueueSize int    `mapstructure:"queue_size"`
}

// ProfilingConfig enables continuous profiling.
type ProfilingConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServerAddress   string            `mapstructure:"server_address"`
	ApplicationName string            `mapstructure:"application_name"`
	Tags            map[string]string `mapstructure:"tags"`
}

// ChaosConfig injects faults into the inbound frame stream.
type ChaosConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Seed          int64   `mapstructure:"seed"`
	DropRate      float64 `mapstructure:"drop_rate"`
	DuplicateRate float64 `mapstructure:"duplicate_rate"`
	ReorderWindow int     `mapstructure:"reorder_window"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	t := service.DefaultTimeouts()
	return Config{
		Gateway: GatewayConfig{
			URL:            "ws://localhost:4001/ws",
			QueueSize:      4096,
			FirstID:        1,
			ConnectTimeout: 10000,
		},
		Timeouts: TimeoutsConfig{
			CurrentTime:         millis(t.CurrentTime),
			ContractDetails:     millis(t.ContractDetails),
			FundamentalData:     millis(t.FundamentalData),
			HistoricalData:      millis(t.HistoricalData),
			RealTimeBars:        millis(t.RealTimeBars),
			MktData:             millis(t.MktData),
			MktDepth:            millis(t.MktDepth),
			ScannerParameters:   millis(t.ScannerParameters),
			ScannerSubscription: millis(t.ScannerSubscription),
			AccountSummary:      millis(t.AccountSummary),
			AccountUpdates:      millis(t.AccountUpdates),
			Executions:          millis(t.Executions),
			OpenOrders:          millis(t.OpenOrders),
			Positions:           millis(t.Positions),
			OrderIDs:            millis(t.OrderIDs),
			PlaceOrder:          millis(t.PlaceOrder),
			ExerciseOptions:     millis(t.ExerciseOptions),
			DisplayGroups:       millis(t.DisplayGroups),
		},
		Accounts: AccountsConfig{
			Group: "All",
		},
		Journal: JournalConfig{
			Host:      "localhost",
			Port:      5432,
			SSLMode:   "disable",
			QueueSize: 1024,
		},
		Profiling: ProfilingConfig{
			ServerAddress:   "http://localhost:4040",
			ApplicationName: "ibgw",
		},
		Chaos: ChaosConfig{
			ReorderWindow: 1,
		},
	}
}

// Load reads an optional JSON config file; every key can be overridden by
// an IBGW_ prefixed environment variable.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("gateway.url", d.Gateway.URL)
	v.SetDefault("gateway.queue_size", d.Gateway.QueueSize)
	v.SetDefault("gateway.first_id", d.Gateway.FirstID)
	v.SetDefault("gateway.connect_timeout", d.Gateway.ConnectTimeout)

	v.SetDefault("timeouts.current_time", d.Timeouts.CurrentTime)
	v.SetDefault("timeouts.contract_details", d.Timeouts.ContractDetails)
	v.SetDefault("timeouts.fundamental_data", d.Timeouts.FundamentalData)
	v.SetDefault("timeouts.historical_data", d.Timeouts.HistoricalData)
	v.SetDefault("timeouts.real_time_bars", d.Timeouts.RealTimeBars)
	v.SetDefault("timeouts.mkt_data", d.Timeouts.MktData)
	v.SetDefault("timeouts.mkt_depth", d.Timeouts.MktDepth)
	v.SetDefault("timeouts.scanner_parameters", d.Timeouts.ScannerParameters)
	v.SetDefault("timeouts.scanner_subscription", d.Timeouts.ScannerSubscription)
	v.SetDefault("timeouts.account_summary", d.Timeouts.AccountSummary)
	v.SetDefault("timeouts.account_updates", d.Timeouts.AccountUpdates)
	v.SetDefault("timeouts.executions", d.Timeouts.Executions)
	v.SetDefault("timeouts.open_orders", d.Timeouts.OpenOrders)
	v.SetDefault("timeouts.positions", d.Timeouts.Positions)
	v.SetDefault("timeouts.order_ids", d.Timeouts.OrderIDs)
	v.SetDefault("timeouts.place_order", d.Timeouts.PlaceOrder)
	v.SetDefault("timeouts.exercise_options", d.Timeouts.ExerciseOptions)
	v.SetDefault("timeouts.display_groups", d.Timeouts.DisplayGroups)

	v.SetDefault("accounts.group", d.Accounts.Group)
	v.SetDefault("accounts.tags", d.Accounts.Tags)
	v.SetDefault("accounts.account", d.Accounts.Account)

	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.dsn", d.Journal.DSN)
	v.SetDefault("journal.host", d.Journal.Host)
	v.SetDefault("journal.port", d.Journal.Port)
	v.SetDefault("journal.user", d.Journal.User)
	v.SetDefault("journal.password", d.Journal.Password)
	v.SetDefault("journal.database", d.Journal.Database)
	v.SetDefault("journal.ssl_mode", d.Journal.SSLMode)
	v.SetDefault("journal.queue_size", d.Journal.QueueSize)

	v.SetDefault("profiling.enabled", d.Profiling.Enabled)
	v.SetDefault("profiling.server_address", d.Profiling.ServerAddress)
	v.SetDefault("profiling.application_name", d.Profiling.ApplicationName)

	v.SetDefault("chaos.enabled", d.Chaos.Enabled)
	v.SetDefault("chaos.seed", d.Chaos.Seed)
	v.SetDefault("chaos.drop_rate", d.Chaos.DropRate)
	v.SetDefault("chaos.duplicate_rate", d.Chaos.DuplicateRate)
	v.SetDefault("chaos.reorder_window", d.Chaos.ReorderWindow)
}

func (c Config) validate() error {
	if c.Gateway.URL == "" {
		return errors.New("gateway url is empty")
	}
	if c.Gateway.QueueSize <= 0 {
		return errors.Errorf("gateway queue_size must be > 0, got %d", c.Gateway.QueueSize)
	}
	if c.Gateway.ConnectTimeout <= 0 {
		return errors.Errorf("gateway connect_timeout must be > 0, got %d", c.Gateway.ConnectTimeout)
	}
	if c.Journal.Enabled && c.Journal.QueueSize <= 0 {
		return errors.Errorf("journal queue_size must be > 0, got %d", c.Journal.QueueSize)
	}
	if c.Chaos.Enabled {
		if err := c.Chaos.Config().Validate(); err != nil {
			return errors.Wrap(err, "chaos")
		}
	}
	for name, ms := range c.Timeouts.byName() {
		if ms < 0 {
			return errors.Errorf("timeout %s must be >= 0, got %d", name, ms)
		}
	}
	return nil
}

// Config converts to the engine config.
func (c ChaosConfig) Config() chaos.Config {
	return chaos.Config{
		Seed:          c.Seed,
		DropRate:      c.DropRate,
		DuplicateRate: c.DuplicateRate,
		ReorderWindow: c.ReorderWindow,
	}
}

// Service converts the configured timeouts.
func (t TimeoutsConfig) Service() service.Timeouts {
	return service.Timeouts{
		CurrentTime:         duration(t.CurrentTime),
		ContractDetails:     duration(t.ContractDetails),
		FundamentalData:     duration(t.FundamentalData),
		HistoricalData:      duration(t.HistoricalData),
		RealTimeBars:        duration(t.RealTimeBars),
		MktData:             duration(t.MktData),
		MktDepth:            duration(t.MktDepth),
		ScannerParameters:   duration(t.ScannerParameters),
		ScannerSubscription: duration(t.ScannerSubscription),
		AccountSummary:      duration(t.AccountSummary),
		AccountUpdates:      duration(t.AccountUpdates),
		Executions:          duration(t.Executions),
		OpenOrders:          duration(t.OpenOrders),
		Positions:           duration(t.Positions),
		OrderIDs:            duration(t.OrderIDs),
		PlaceOrder:          duration(t.PlaceOrder),
		ExerciseOptions:     duration(t.ExerciseOptions),
		DisplayGroups:       duration(t.DisplayGroups),
	}
}

func (t TimeoutsConfig) byName() map[string]int {
	return map[string]int{
		"current_time":         t.CurrentTime,
		"contract_details":     t.ContractDetails,
		"fundamental_data":     t.FundamentalData,
		"historical_data":      t.HistoricalData,
		"real_time_bars":       t.RealTimeBars,
		"mkt_data":             t.MktData,
		"mkt_depth":            t.MktDepth,
		"scanner_parameters":   t.ScannerParameters,
		"scanner_subscription": t.ScannerSubscription,
		"account_summary":      t.AccountSummary,
		"account_updates":      t.AccountUpdates,
		"executions":           t.Executions,
		"open_orders":          t.OpenOrders,
		"positions":            t.Positions,
		"order_ids":            t.OrderIDs,
		"place_order":          t.PlaceOrder,
		"exercise_options":     t.ExerciseOptions,
		"display_groups":       t.DisplayGroups,
	}
}

// Option converts the journal settings to a postgres connection option.
func (j JournalConfig) Option() conn.Option {
	return conn.Option{
		ConnString: j.DSN,
		Host:       j.Host,
		Port:       j.Port,
		User:       j.User,
		Password:   j.Password,
		Database:   j.Database,
		SSLMode:    j.SSLMode,
	}
}

func millis(d time.Duration) int {
	return int(d / time.Millisecond)
}

func duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ConnectWait returns the connect timeout as a duration.
func (g GatewayConfig) ConnectWait() time.Duration {
	return duration(g.ConnectTimeout)
}
