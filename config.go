package val

import (
	"fmt"
	"gopkg.in/yaml.v2"
	"os"
	"regexp"
	"strings"
)

const DefaultConfigPath = "./availability-loader.yaml"
const APISecretEnvName = "API_SECRET_VAL"
const APIHostEnvName = "API_HOST_VAL"
const APISecretAWSName = "secret"

var HostPattern = regexp.MustCompile(`(?i)https?://([^/]+)`)

type Config struct {
	Debug                 bool                    `yaml:"debug"`
	TestMode              bool                    `yaml:"test_mode"`
	PollInterval          int64                   `yaml:"poll_interval"`
	ApiSecret             string                  `yaml:"api_secret"`
	ApiUrl                string                  `yaml:"api_url"`
	FromEmailAddress      string                  `yaml:"from_email_address"`
	SmtpUsername          string                  `yaml:"smtp_user"`
	SmtpPassword          string                  `yaml:"smtp_pass"`
	SmtpHost              string                  `yaml:"smtp_host"`
	SmtpPort              int                     `yaml:"smtp_port"`
	ErrorWarningThreshold int                     `yaml:"error_warning_threshold"`
	NotifyEmailAddrs      []string                `yaml:"notify_email_addrs"`
	DumpDir               string                  `yaml:"dump_dir"`
	SourceConfigs         map[string]SourceConfig `yaml:"source_configs"`
	NotifyOnError         bool                    `yaml:"notify_on_error"`
	DumpOutput            bool                    `yaml:"dump_output"`
	DumpOutputS3          bool                    `yaml:"dump_output_s3"`
}

type SourceConfig struct {
	Type        string                 `yaml:"type"`
	Params      map[string]interface{} `yaml:"params"`
	MinInterval int64                  `yaml:"min_check_interval"`
}

func NewConfigDefaultPath() (*Config, error) {
	return NewConfig(DefaultConfigPath)
}

func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)

	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	if config.Debug {
		Log.SetLevel("debug")
	}

	//replace host portion of the sink url, usually for testing
	hostOverride := os.Getenv(APIHostEnvName)
	if len(hostOverride) > 0 {
		newApiUrl, err := ReplaceHost(config.ApiUrl, hostOverride)
		if err != nil {
			return nil, err
		}
		config.ApiUrl = newApiUrl
	}

	Log.Debugf("API update URL: %s", config.ApiUrl)

	if len(config.ApiUrl) == 0 {
		//dump-only runs don't need a secret
		return config, nil
	}

	if len(config.ApiSecret) == 0 {
		config.ApiSecret = os.Getenv(APISecretEnvName)
		notFound := ""
		if len(config.ApiSecret) == 0 {
			notFound = "NOT "
		}
		Log.Debugf("API secret %sfound in environment variable %s", notFound, APISecretEnvName)
	} else {
		Log.Debugf("API secret found in %s", configPath)
	}

	if len(config.ApiSecret) == 0 {
		config.ApiSecret, err = GetAWSParameter(APISecretAWSName, true)
		if err != nil {
			Log.Errorf("Could not get api secret from AWS: %v", err)
		}

		notFound := ""
		if len(config.ApiSecret) == 0 {
			notFound = "NOT "
		}
		Log.Debugf("API secret %sfound in AWS parameter '%s'", notFound, APISecretAWSName)
	}

	if len(config.ApiSecret) == 0 {
		return nil, fmt.Errorf("Could not find api secret in any of these places: %s, $%s, or AWS parameter '%s'", configPath, APISecretEnvName, APISecretAWSName)
	}

	return config, nil
}

func ReplaceHost(originalUrl string, host string) (string, error) {
	matches := HostPattern.FindStringSubmatch(originalUrl)
	if len(matches) < 2 {
		return "", fmt.Errorf("Could not parse host from url: %s", originalUrl)
	}

	originalHost := matches[1]
	newUrl := strings.Replace(originalUrl, originalHost, host, 1)

	return newUrl, nil
}
