package xrpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// newScriptedNode runs a websocket node that answers each command through
// handle. A non-empty error code produces an error envelope.
func newScriptedNode(t *testing.T, handle func(cmd string, frame map[string]interface{}) (interface{}, string)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var frame map[string]interface{}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			cmd, _ := frame["command"].(string)
			result, code := handle(cmd, frame)
			resp := map[string]interface{}{"id": frame["id"]}
			if code != "" {
				resp["status"] = "error"
				resp["error"] = code
			} else {
				resp["status"] = "success"
				resp["result"] = result
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}))
}

func dialScriptedNode(t *testing.T, node *httptest.Server) *Client {
	t.Helper()
	endpoint := "ws" + strings.TrimPrefix(node.URL, "http")
	client, err := NewClient(context.Background(), endpoint, 100)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSubmitAndWait_ReturnsValidatedResult(t *testing.T) {
	node := newScriptedNode(t, func(cmd string, _ map[string]interface{}) (interface{}, string) {
		switch cmd {
		case "submit":
			return map[string]interface{}{
				"engine_result": "tesSUCCESS",
				"tx_json":       map[string]interface{}{"hash": "ABC123", "LastLedgerSequence": 120},
			}, ""
		case "tx":
			return map[string]interface{}{
				"validated": true,
				"meta":      map[string]interface{}{"TransactionResult": "tesSUCCESS"},
			}, ""
		}
		return nil, "unknownCmd"
	})
	defer node.Close()

	result, err := dialScriptedNode(t, node).SubmitAndWait(context.Background(), "blob")
	require.NoError(t, err)
	require.True(t, result.Validated)
	require.Equal(t, "ABC123", result.Hash)
	require.True(t, result.Succeeded())
}

func TestSubmitAndWait_LocalRejectionReturnsImmediately(t *testing.T) {
	txPolls := 0
	node := newScriptedNode(t, func(cmd string, _ map[string]interface{}) (interface{}, string) {
		switch cmd {
		case "submit":
			return map[string]interface{}{
				"engine_result": "temBAD_FEE",
				"tx_json":       map[string]interface{}{"hash": "ABC123", "LastLedgerSequence": 120},
			}, ""
		case "tx":
			txPolls++
		}
		return nil, "unknownCmd"
	})
	defer node.Close()

	result, err := dialScriptedNode(t, node).SubmitAndWait(context.Background(), "blob")
	require.NoError(t, err)
	require.False(t, result.Validated)
	require.Equal(t, "temBAD_FEE", result.ResultCode)
	require.Zero(t, txPolls)
}

// A transaction the network never picks up must stop being waited on once
// the validated ledger index moves past its LastLedgerSequence, even when
// the caller's context has no deadline of its own.
func TestSubmitAndWait_GivesUpPastLastLedger(t *testing.T) {
	node := newScriptedNode(t, func(cmd string, _ map[string]interface{}) (interface{}, string) {
		switch cmd {
		case "submit":
			return map[string]interface{}{
				"engine_result": "terQUEUED",
				"tx_json":       map[string]interface{}{"hash": "ABC123", "LastLedgerSequence": 120},
			}, ""
		case "tx":
			return nil, "txnNotFound"
		case "ledger":
			return map[string]interface{}{"ledger_index": 130}, ""
		}
		return nil, "unknownCmd"
	})
	defer node.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := dialScriptedNode(t, node).SubmitAndWait(ctx, "blob")
	require.ErrorIs(t, err, ErrTxExpired)
	require.Less(t, time.Since(start), 5*time.Second)
}
