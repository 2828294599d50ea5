package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscotobar/rif-relay-server/core/utils"
	"github.com/franciscotobar/rif-relay-server/core/web"
	"github.com/franciscotobar/rif-relay-server/testutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, app *testutil.TestApplication) *httptest.Server {
	gin.SetMode(gin.TestMode)
	server := httptest.NewServer(web.Router(app.Application))
	t.Cleanup(server.Close)
	return server
}

func authedRequest(t *testing.T, method, url string, body []byte) *http.Response {
	request, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	request.SetBasicAuth(testutil.Username, testutil.Password)
	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	return response
}

func TestCreateTransaction(t *testing.T) {
	app := testutil.NewApplicationWithKeyStore()
	defer app.Stop()
	mock := app.MockEthClient()
	signer := app.Store.ManagerKeys.GetAccount().Address
	server := newServer(t, app)

	mock.Register("eth_blockNumber", "0x64")
	mock.Register("eth_getTransactionCount", "0x5")
	mock.Register("eth_sendRawTransaction", testutil.Responder(func(args []interface{}) interface{} {
		return utils.Keccak256Hash(common.FromHex(args[0].(string)))
	}))

	body, err := json.Marshal(map[string]interface{}{
		"from":         signer.Hex(),
		"to":           testutil.NewAddress().Hex(),
		"gasLimit":     21000,
		"gasPrice":     "0x3b9aca00",
		"serverAction": "RelayCall",
	})
	require.NoError(t, err)

	response := authedRequest(t, "POST", server.URL+"/v1/transactions", body)
	defer response.Body.Close()
	require.Equal(t, http.StatusCreated, response.StatusCode)

	var result struct {
		Hash  string `json:"hash"`
		RawTx string `json:"rawTx"`
	}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&result))
	assert.NotEmpty(t, result.RawTx)
	assert.Equal(t, utils.Keccak256Hash(common.FromHex(result.RawTx)).Hex(), result.Hash)

	stored, err := app.Store.TxsBySigner(signer)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(100), stored[0].CreationBlockNumber)
	assert.True(t, mock.AllCalled())
}

func TestIndexTransactions(t *testing.T) {
	app := testutil.NewApplicationWithKeyStore()
	defer app.Stop()
	app.MockEthClient()
	signer := app.Store.ManagerKeys.GetAccount().Address
	server := newServer(t, app)

	tx := testutil.NewTx(signer, 5, 10, 100)
	require.NoError(t, app.Store.PutTx(tx, false))

	response := authedRequest(t, "GET", fmt.Sprintf("%s/v1/transactions?signer=%s", server.URL, signer.Hex()), nil)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	var txs []map[string]interface{}
	require.NoError(t, json.NewDecoder(response.Body).Decode(&txs))
	require.Len(t, txs, 1)
	assert.Equal(t, tx.Hash.Hex(), txs[0]["hash"])
}

func TestRouterRequiresAuth(t *testing.T) {
	app := testutil.NewApplicationWithKeyStore()
	defer app.Stop()
	app.MockEthClient()
	server := newServer(t, app)

	response, err := http.Get(server.URL + "/v1/transactions")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
}
