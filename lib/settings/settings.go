package settings

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"static-file-filter/lib/config"
	"static-file-filter/lib/db/rejects"
	"static-file-filter/lib/http"
	"static-file-filter/lib/utils"
)

// Settings is the process configuration assembled from flags and the
// environment (a .env file is loaded by lib/utils).
type Settings struct {
	Addr             string `validate:"required,hostname_port"`
	ConfigFile       string `validate:"required"`
	CheckOnly        bool
	Engine           string `validate:"oneof=fiber gin"`
	Upstream         string `validate:"required_without=Root,omitempty,hostname_port"`
	Root             string `validate:"required_without=Upstream,omitempty,dir"`
	MergePolicy      string `validate:"oneof=append replace"`
	StrictExtensions bool
	LogLevel         string `validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
	LogFormat        string `validate:"omitempty,oneof=json json-pretty text std"`
	RedisAddr        string `validate:"omitempty,hostname_port"`
	GeoIPDB          string `validate:"omitempty,file"`
	AuditCapacity    int    `validate:"gte=0"`
	AuditSalt        string
}

// Load parses args (without the program name) over environment defaults.
func Load(args []string) (*Settings, error) {
	s := &Settings{}

	fs := flag.NewFlagSet("static-file-filter", flag.ContinueOnError)
	fs.StringVar(&s.Addr, "addr", utils.GetEnvDefault("PF_ADDR", "0.0.0.0:80"), "Proxy address")
	fs.StringVar(&s.ConfigFile, "conf", utils.GetEnvDefault("PF_CONF", "Filterfile"), "Filterfile path")
	fs.BoolVar(&s.CheckOnly, "t", false, "Check the configuration, print it and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	s.Engine = strings.ToLower(utils.GetEnvDefault("PF_ENGINE", http.EngineFiber))
	s.Upstream = utils.GetEnvDefault("PF_UPSTREAM", "")
	s.Root = utils.GetEnvDefault("PF_ROOT", "")
	s.MergePolicy = strings.ToLower(utils.GetEnvDefault("PF_MERGE_POLICY", string(config.MergeAppend)))
	s.StrictExtensions = utils.GetEnvAsBool("PF_STRICT_EXTENSIONS", false)
	s.LogLevel = strings.ToLower(utils.GetEnvDefault("LOG_LEVEL", "info"))
	s.LogFormat = strings.ToLower(utils.GetEnvDefault("LOG_FORMAT", ""))
	s.RedisAddr = utils.GetEnvDefault("REDIS_ADDR", "")
	s.GeoIPDB = utils.GetEnvDefault("GEOIP_DB", "")
	s.AuditCapacity = utils.GetEnvAsInt("AUDIT_CAPACITY", 1000)
	s.AuditSalt = utils.GetEnv("AUDIT_SALT")

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Settings) Validate() error {
	// content settings only matter once we serve
	if s.CheckOnly && s.Upstream == "" && s.Root == "" {
		s.Root = "."
	}

	err := validator.New().Struct(s)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		messages := make([]string, 0, len(errs))
		for _, e := range errs {
			msg := fmt.Sprintf("'%s': rule '%s'", e.Field(), e.Tag())
			if e.Value() != nil && e.Value() != "" {
				msg += fmt.Sprintf(", actual: '%v'", e.Value())
			}
			messages = append(messages, msg)
		}
		return fmt.Errorf("invalid settings:\n  %s", strings.Join(messages, "\n  "))
	}

	return fmt.Errorf("settings validation error: %w", err)
}

func (s *Settings) ParseOptions() config.ParseOptions {
	policy, _ := config.ParseMergePolicy(s.MergePolicy)

	return config.ParseOptions{
		MergePolicy: policy,
		Strict:      s.StrictExtensions,
	}
}

func (s *Settings) Content() http.ContentOptions {
	return http.ContentOptions{
		Upstream: s.Upstream,
		Root:     s.Root,
	}
}

func (s *Settings) Rejects() rejects.Config {
	return rejects.Config{
		Capacity:  s.AuditCapacity,
		RedisAddr: s.RedisAddr,
		GeoIPDB:   s.GeoIPDB,
		Salt:      s.AuditSalt,
	}
}
