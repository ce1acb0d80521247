package val

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/smtp"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const DefaultSubject = "Availability Loader - Notification"
const SinglePassRetries = 3

var config *Config

func Run(args []string) {
	var err error

	config, err = NewConfigDefaultPath()
	if err != nil {
		Log.Errorf("Can't read config: %v", err)
		panic(err)
	}

	if args[0] == "availability-loader-lambda" {
		//always disable file output on lambda
		config.DumpOutput = false
	}

	if _, err = os.Stat(config.DumpDir); config.DumpOutput && err != nil {
		err := os.Mkdir(config.DumpDir, 0755)
		if err != nil {
			Log.Errorf("Can't create dump dir: %s", config.DumpDir)
			panic(err)
		}
	}

	if config.PollInterval < 10 || config.PollInterval > 86400 {
		panic(fmt.Errorf("Poll interval must be between 10 and 86400 seconds, configured: %d", config.PollInterval))
	}

	constructors := GetSourceConstructors()

	runContexts := make([]*CheckAndSendContext, 0)
	sourceNames := make([]string, 0)

	for configName, sourceConfig := range config.SourceConfigs {
		constructor, exists := constructors[sourceConfig.Type]
		if !exists {
			panic(fmt.Sprintf("Unknown source type: %s", sourceConfig.Type))
		}

		source := constructor(configName)
		if err = source.Configure(sourceConfig.Params); err != nil {
			panic(fmt.Sprintf("%s: %v", source.Name(), err))
		}

		//make copy of parsed config so we don't clobber each other
		sourceConfig := sourceConfig

		Log.Infof("Registering source: %s - type: %s", source.Name(), sourceConfig.Type)

		runContexts = append(runContexts, NewCheckAndSendContext(source, &sourceConfig))
		sourceNames = append(sourceNames, source.Name())
	}

	tracker := NewRunTracker(sourceNames)

	if len(args) > 1 {
		switch args[1] {
		case "once":
			for retryCount := 0; len(runContexts) > 0 && retryCount <= SinglePassRetries; retryCount++ {
				if retryCount == 0 {
					Log.Infof("Running %d source(s) once...", len(runContexts))
				} else {
					Cache.Destroy() //clear out any cached data

					// don't retry too fast
					time.Sleep(2 * time.Second)
					Log.Infof("Retrying %d failed source(s) (%d/%d)...", len(runContexts), retryCount, SinglePassRetries)
				}

				failedContexts := make([]*CheckAndSendContext, 0)

				// sources run strictly sequentially, one in-flight fetch at
				// a time
				for _, ctx := range runContexts {
					doCheckAndSend(tracker, ctx, true)

					if ctx.Err != nil {
						failedContexts = append(failedContexts, ctx)
					} else {
						Log.Infof("Source '%s' finished, %d locations", ctx.Name, ctx.Count)
					}
				}

				runContexts = failedContexts
			}

			Cache.Destroy() //clear out any crud left in the cache
		case "test":
			if len(args) > 2 {
				patternStr := fmt.Sprintf("^%s$", args[2])
				if strings.Contains(patternStr, "*") {
					patternStr = strings.ReplaceAll(patternStr, "*", ".*")
				}

				pattern := regexp.MustCompile(patternStr)
				Log.Debugf("Testing all sources with names matching %v", pattern)
				sourceCount := 0
				errorCount := 0

				for _, ctx := range runContexts {
					if pattern.MatchString(ctx.Name) {
						doCheckAndSend(tracker, ctx, true)
						sourceCount++

						Log.Infof("Source %s finished with %d locations, err: %v", ctx.Name, ctx.Count, ctx.Err)
						if ctx.Err != nil {
							errorCount++
						}
					}
				}

				if sourceCount == 0 {
					Log.Warnf("Source not found: %s", args[2])
					os.Exit(2)
				} else if errorCount > 0 {
					os.Exit(2)
				} else {
					os.Exit(0)
				}
			}
			fallthrough
		default:
			printUsageAndExit(args)
		}
	} else {
		Log.Infof("Running %d sources continuously...", len(runContexts))

		for {
			for _, ctx := range runContexts {
				doCheckAndSend(tracker, ctx, false)
			}
			time.Sleep(time.Duration(1) * time.Second)
		}
	}
}

type CheckAndSendContext struct {
	Name   string
	Source Source
	Config *SourceConfig
	Count  int
	Err    error
}

func NewCheckAndSendContext(source Source, sourceConfig *SourceConfig) *CheckAndSendContext {
	ctx := new(CheckAndSendContext)
	ctx.Name = source.Name()
	ctx.Source = source
	ctx.Config = sourceConfig

	return ctx
}

//forceCheck: ignore any interval checks and just run immediately
func doCheckAndSend(tracker *RunTracker, ctx *CheckAndSendContext, forceCheck bool) {
	minInterval := config.PollInterval
	if ctx.Config.MinInterval > 0 {
		minInterval = ctx.Config.MinInterval
	}

	lastRunTime := tracker.LastRun(ctx.Name)
	currentTime := time.Now().Unix()
	if !forceCheck && currentTime-lastRunTime < minInterval {
		return
	}

	if !tracker.Lock(ctx.Name) {
		return
	}

	dump := newDumpBuffer()

	// The sink is synchronous and must never panic; send errors are logged
	// and counted, never propagated back into the pipeline.
	handler := func(location *Location) {
		body, err := json.Marshal(location)
		if err != nil {
			Log.Errorf("%s: could not marshal location %s: %v", ctx.Name, location.Id, err)
			return
		}

		dump.add(body)

		if len(config.ApiUrl) > 0 {
			sendLocation(ctx.Name, body)
		}
	}

	count, err := ctx.Source.CheckAvailability(handler)
	ctx.Count = count
	ctx.Err = err

	if err != nil {
		Log.Errorf("%s: %v", ctx.Name, err)
		errorCount := tracker.Error(ctx.Name, err)
		tracker.Unlock(ctx.Name)

		if errorCount == config.ErrorWarningThreshold && config.NotifyOnError {
			if err := notifyError(ctx.Name, err); err != nil {
				Log.Errorf("%+v", err)
			}
		}
	} else {
		tracker.Finish(ctx.Name)
	}

	if dump.Len() > 0 && (config.DumpOutput || config.DumpOutputS3) {
		dumpOutput(ctx.Name, dump.Bytes())
	}
}

// sendLocation posts one canonical location to the availability API.
// Retries up to the configured threshold before giving up.
func sendLocation(name string, body []byte) bool {
	if config.TestMode {
		Log.Debugf("(silent) name: %s, body: %s", name, string(body))
		return true
	}

	retries := config.ErrorWarningThreshold
	if retries < 1 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(5) * time.Second)
		}

		client := &http.Client{}

		req, err := http.NewRequest("POST", config.ApiUrl, bytes.NewReader(body))
		if err != nil {
			Log.Errorf("%s: %+v", name, err)
			return false
		}
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("x-api-key", config.ApiSecret)

		resp, err := client.Do(req)
		if err != nil {
			Log.Errorf("%s: %+v", name, err)
			continue
		}

		respBody, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			Log.Errorf("%s: %+v", name, err)
			continue
		}

		if resp.StatusCode != 200 {
			Log.Errorf("%s: API status code is %d: %s", name, resp.StatusCode, string(respBody))
			continue
		}

		return true
	}

	Log.Errorf("%s: giving up sending location to availability API", name)
	return false
}

// dumpBuffer collects the pass's output as newline-delimited json, the same
// shape the downstream snapshot jobs consume.
type dumpBuffer struct {
	buffer bytes.Buffer
}

func newDumpBuffer() *dumpBuffer {
	return new(dumpBuffer)
}

func (d *dumpBuffer) add(line []byte) {
	d.buffer.Write(line)
	d.buffer.WriteString(NEWLINE)
}

func (d *dumpBuffer) Len() int {
	return d.buffer.Len()
}

func (d *dumpBuffer) Bytes() []byte {
	return d.buffer.Bytes()
}

func dumpOutput(name string, body []byte) (url string) {
	fileName := fmt.Sprintf("%s.%d.ndjson", name, time.Now().Unix())
	url = ""
	var err error

	if config.DumpOutputS3 {
		if HasAWSCredentials() {
			url, err = PutS3Object(S3DumpBucket, fileName, body)
			if err != nil {
				Log.Warnf("%v", err)
			} else {
				Log.Debugf("Sent %d bytes to S3: %s", len(body), url)
			}
		} else {
			Log.Warnf("Loader configured to send to S3 but no AWS credentials were found")
		}
	}

	if config.DumpOutput {
		filePath := filepath.Join(config.DumpDir, fileName)

		err = ioutil.WriteFile(filePath, body, 0644)
		if err != nil {
			Log.Warnf("%v", err)
		}

		Log.Debugf("Wrote %d bytes to file: %s", len(body), filePath)
	}

	return url
}

func notifyError(name string, err error) error {
	subject := DefaultSubject
	body := fmt.Sprintf("Error during availability check: %s: %v", name, err)

	return sendEmail(subject, body)
}

func sendEmail(subject string, body string) error {
	if len(config.SmtpHost) == 0 {
		return nil
	}

	Log.Infof("Subject: %s", subject)
	Log.Infof("Body: %s", body)

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("\r\n")
	sb.WriteString(body)

	auth := smtp.PlainAuth("", config.SmtpUsername, config.SmtpPassword, config.SmtpHost)

	err := smtp.SendMail(fmt.Sprintf("%s:%d", config.SmtpHost, config.SmtpPort), auth, config.FromEmailAddress, config.NotifyEmailAddrs, []byte(sb.String()))

	if err != nil {
		Log.Errorf("sendEmail: %+v", err)
	}

	return err
}

func printUsageAndExit(args []string) {
	exeName := filepath.Base(args[0])
	fmt.Printf("Usage: %s once | test <source_name>\n", exeName)
	os.Exit(0)
}
