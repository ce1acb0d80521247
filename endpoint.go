package val

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

//thin http transport collaborator; retry/timeout policy lives here, not in
//the normalization pipeline

const EndpointUrl = "url"
const EndpointMethod = "method"
const EndpointBody = "body"
const EndpointHeaders = "headers"
const EndpointAllowedStatusCodes = "allowed_status_codes"
const EndpointTimeout = "timeout"
const EndpointDefaultTimeout = 30

type Endpoint struct {
	Url                string
	Method             string
	Body               string
	Headers            []Header
	AllowedStatusCodes []int
	HttpClient         *http.Client
	Timeout            int
}

type Header struct {
	Name  string
	Value string
}

func NewEndpoint(params map[string]interface{}) (*Endpoint, error) {
	endpoint := new(Endpoint)

	url, err := getStringRequired(params, EndpointUrl)
	if err != nil {
		return nil, err
	}
	endpoint.Url = url

	method, err := getStringRequired(params, EndpointMethod)
	if err != nil {
		return nil, err
	}
	endpoint.Method = method

	if endpoint.Method == "POST" {
		body, err := getStringRequired(params, EndpointBody)
		if err != nil {
			return nil, err
		}
		endpoint.Body = body
	}

	endpoint.Headers = make([]Header, 0)
	if headers := getMapOptional(params, EndpointHeaders); headers != nil {
		for headerName, headerValue := range headers {
			if valueStr, ok := headerValue.(string); ok {
				endpoint.Headers = append(endpoint.Headers, Header{Name: headerName, Value: valueStr})
			} else {
				return nil, fmt.Errorf("Expecting a string value for header %s, got '%T' instead", headerName, headerValue)
			}
		}
	}

	if _, exists := params[EndpointAllowedStatusCodes]; exists {
		if untypedArr, ok := params[EndpointAllowedStatusCodes].([]interface{}); ok {
			endpoint.AllowedStatusCodes = make([]int, 0, len(untypedArr))
			for _, code := range untypedArr {
				if codeInt, ok := code.(int); ok {
					endpoint.AllowedStatusCodes = append(endpoint.AllowedStatusCodes, codeInt)
				}
			}
		}
	}

	endpoint.Timeout, _ = getIntOptionalWithDefault(params, EndpointTimeout, EndpointDefaultTimeout)

	return endpoint, nil
}

const FetchCacheDefaultTTL = 120

func (endpoint *Endpoint) GenerateCacheKeyWithTTL(name string, ttl int64) string {
	if endpoint.Method == "GET" {
		return fmt.Sprintf("%s|%d", endpoint.Url, ttl)
	} else if endpoint.Method == "POST" {
		hash := sha256.Sum256([]byte(endpoint.Body))
		hashString := hex.EncodeToString(hash[:])
		return fmt.Sprintf("%s|%s|%d", endpoint.Url, hashString, ttl)
	} else {
		return ""
	}
}

func (endpoint *Endpoint) FetchCached(name string) (body []byte, cacheMiss bool, err error) {
	return endpoint.FetchCachedWithTTL(name, FetchCacheDefaultTTL)
}

func (endpoint *Endpoint) FetchCachedWithTTL(name string, ttl int64) (body []byte, cacheMiss bool, err error) {
	key := endpoint.GenerateCacheKeyWithTTL(name, ttl)
	if len(key) == 0 {
		body, err := endpoint.Fetch(name)
		return body, true, err
	}

	body, ok := Cache.GetOrLock(key).([]byte)

	if !ok || body == nil {
		defer Cache.Unlock(key)
		body, err := endpoint.Fetch(name)
		if err != nil {
			return body, true, err
		}
		Cache.Put(key, body, ttl)

		return body, true, nil
	}

	return body, false, nil
}

func (endpoint *Endpoint) Fetch(name string) ([]byte, error) {
	if endpoint.Method != "GET" && endpoint.Method != "POST" {
		return nil, fmt.Errorf("Unknown method: %s", endpoint.Method)
	}

	client := endpoint.HttpClient
	if client == nil {
		client = &http.Client{
			Timeout: time.Duration(endpoint.Timeout) * time.Second,
			Transport: &http.Transport{
				DisableKeepAlives: false,
			},
		}
	}

	req, err := http.NewRequest(endpoint.Method, endpoint.Url, strings.NewReader(endpoint.Body))
	if err != nil {
		return nil, err
	}

	for _, header := range endpoint.Headers {
		req.Header.Add(header.Name, header.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		Log.Debugf("%s: error during fetch: %v", name, err)
		return nil, err
	}

	if resp.Body != nil {
		defer resp.Body.Close()
	}

	gzipContent := strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip")

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if gzipContent {
		Log.Debug("Decompressing gzipped content...")

		gzReader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		body, err = ioutil.ReadAll(gzReader)
		if err != nil {
			return nil, err
		}
	}

	Log.Debugf("%s: fetched %d bytes with status code %d from %s", name, len(body), resp.StatusCode, endpoint.Url)

	if resp.StatusCode != 200 {
		allowed := false
		for _, code := range endpoint.AllowedStatusCodes {
			if resp.StatusCode == code {
				allowed = true
			}
		}

		if !allowed {
			snippet := body
			if len(snippet) > 128 {
				snippet = snippet[:128]
			}
			Log.Warnf("%s: Status code: %d, %s", name, resp.StatusCode, string(snippet))
			return body, fmt.Errorf("Status code: %d", resp.StatusCode)
		}
	}

	return body, nil
}
