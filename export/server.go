package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/hb9tf/filgen/generator"
)

const (
	contentType             = "application/json"
	CatalogEndpoint         = "filgen/v1/catalog"
	defaultSendRecordAmount = 100
)

// CatalogServer submits records in batches to a catalog server.
type CatalogServer struct {
	Server            string
	SendRecordsAmount int
	Client            *http.Client
}

// CollectResponse is the catalog server reply to a submission.
type CollectResponse struct {
	Status      string `json:"status"`
	RecordCount int    `json:"recordCount"`
}

func (s *CatalogServer) Write(ctx context.Context, records <-chan generator.Record) error {
	sendRecordsAmount := defaultSendRecordAmount
	if s.SendRecordsAmount > 0 {
		sendRecordsAmount = s.SendRecordsAmount
	}

	var recordsToSend []generator.Record
	for r := range records {
		recordsToSend = append(recordsToSend, r)
		if len(recordsToSend) < sendRecordsAmount {
			continue // we haven't collected enough records to send yet
		}
		s.send(ctx, recordsToSend)
		recordsToSend = nil
	}
	if len(recordsToSend) > 0 {
		s.send(ctx, recordsToSend)
	}

	return nil
}

func (s *CatalogServer) send(ctx context.Context, records []generator.Record) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(records)
	if err != nil {
		glog.Warningf("error marshalling records to JSON: %s\n", err)
		return
	}
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.Server, "/"), CatalogEndpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		glog.Warningf("error creating POST request: %s\n", err)
		return
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		glog.Warningf("error POSTing records: %s\n", err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		glog.Warningf("error reading POST body: %s\n", err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		glog.Warningf("catalog server %s rejected %d records: %s: %s\n", s.Server, len(records), resp.Status, respBody)
		return
	}

	collectResponseBody := CollectResponse{}
	if err := json.Unmarshal(respBody, &collectResponseBody); err != nil {
		glog.Warningf("error decoding catalog server response: %s\n", err)
		return
	}
	glog.Infof("submitted %d records to server %s", collectResponseBody.RecordCount, s.Server)
}
