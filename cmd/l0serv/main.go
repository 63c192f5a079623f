package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/sarmap/go-s1isp/isp"
)

// l0serv exposes Sentinel-1 L0 products stored in an S3 bucket: it lists
// objects, fetches a measurement data component on demand and serves the
// decoded packet headers as JSON.

var cli struct {
	Addr     string `long:"addr" description:"listen address" default:"0.0.0.0:8081"`
	Bucket   string `long:"bucket" description:"S3 bucket holding the L0 products" default:"sentinel-s1-l0"`
	Region   string `long:"region" description:"S3 bucket region" default:"eu-central-1"`
	LogLevel string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" default:"info"`
}

const defaultMaxCount = 1000

func main() {
	if _, err := flags.Parse(&cli); err != nil {
		os.Exit(1)
	}
	levels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
	}
	logrus.SetLevel(levels[cli.LogLevel])

	r := mux.NewRouter()
	r.HandleFunc("/l0", listHandler)
	r.HandleFunc("/l0/{key:.+}/index", indexHandler)
	r.HandleFunc("/l0/{key:.+}", headersHandler)

	srv := &http.Server{
		Addr: cli.Addr,
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}

	logrus.Infof("serving %s on %s", cli.Bucket, cli.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logrus.Error(err)
	}
}

func s3Client() *s3.S3 {
	sess, _ := session.NewSession(&aws.Config{
		Credentials: credentials.AnonymousCredentials,
		Region:      aws.String(cli.Region),
	})
	return s3.New(sess)
}

func listHandler(w http.ResponseWriter, req *http.Request) {
	svc := s3Client()
	prefix := req.URL.Query().Get("prefix")
	resp, err := svc.ListObjectsV2(&s3.ListObjectsV2Input{
		Bucket: aws.String(cli.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	keys := make([]string, 0, len(resp.Contents))
	for _, obj := range resp.Contents {
		keys = append(keys, *obj.Key)
	}
	writeJSON(w, keys)
}

// fetchObject downloads an object into memory so the stream decoder can
// seek over it.
func fetchObject(key string) ([]byte, error) {
	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cli.Bucket, cli.Region, key)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status code fetching %s: %d", key, resp.StatusCode)
	}
	return ioutil.ReadAll(resp.Body)
}

func headersHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	key := vars["key"]

	maxCount := defaultMaxCount
	if s := req.URL.Query().Get("maxcount"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid maxcount", http.StatusBadRequest)
			return
		}
		maxCount = v
	}
	skip := 0
	if s := req.URL.Query().Get("skip"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid skip", http.StatusBadRequest)
			return
		}
		skip = v
	}

	data, err := fetchObject(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	records, _, _, err := isp.Decode(bytes.NewReader(data), isp.Options{
		Skip:     skip,
		MaxCount: maxCount,
	})
	if err != nil && len(records) == 0 {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	metas := make([]map[string]interface{}, len(records))
	for i := range records {
		metas[i] = records[i].Metadata(false)
	}
	writeJSON(w, metas)
}

func indexHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	key := vars["key"]

	data, err := fetchObject(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	entries, err := isp.ReadIndex(bytes.NewReader(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	j, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(j)
}
