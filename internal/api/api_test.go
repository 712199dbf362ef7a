package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreledger/ledgerd/internal/config"
	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/mining"
	"github.com/coreledger/ledgerd/internal/primitives"
	"github.com/coreledger/ledgerd/internal/store/memstore"
)

type testKey struct {
	priv primitives.Hash
	addr primitives.Address
}

func newTestKey(t *testing.T, seed byte) testKey {
	t.Helper()
	var priv primitives.Hash
	priv[31] = seed + 1
	addr, err := cryptoutil.DerivePubKey(priv)
	require.NoError(t, err)
	return testKey{priv: priv, addr: addr}
}

func newTestServer(t *testing.T, mode config.Mode, target int) (*httptest.Server, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	live := config.NewLive(mode, target)
	protocol := mining.New(s, live, 8, 4, 50)
	router := NewRouter(&Server{Store: s, Protocol: protocol, Live: live})
	return httptest.NewServer(router), s
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	return resp
}

// getJSONWithBody issues a GET request carrying a JSON body, for the
// handful of read endpoints spec.md §6 defines as GET with a structured
// query payload (generate_sig, verify_sig, verify_proof) rather than path
// parameters.
func getJSONWithBody(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestTryMineEmptyMempoolReturnsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()
	miner := newTestKey(t, 1)

	resp := postJSON(t, srv, "/try_mine", mineInfo{Miner: miner.addr.String(), Nonce: 0, Signature: fmt.Sprintf("%0128x", 0)})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decodeBody(t, resp, &body)
	require.Equal(t, "No transactions to mine", body.Message)

	heightResp := getJSON(t, srv, "/block_height")
	var height uint64
	decodeBody(t, heightResp, &height)
	require.Equal(t, uint64(0), height)
}

func TestMintTransferAndMineEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()

	alice := newTestKey(t, 1)
	bob := newTestKey(t, 2)
	miner := newTestKey(t, 3)

	mintResp := postJSON(t, srv, "/mint", apiMint{To: alice.addr.String(), Amount: "1000"})
	require.Equal(t, http.StatusOK, mintResp.StatusCode)

	nonceResp := getJSON(t, srv, "/get_nonce/"+alice.addr.String())
	var nonce uint64
	decodeBody(t, nonceResp, &nonce)
	require.Equal(t, uint64(0), nonce)

	transferHash := cryptoutil.TransferHashInput(alice.addr, bob.addr, "100", nonce)
	digest := cryptoutil.HashMessage(transferHash)
	sig, err := cryptoutil.Sign(alice.priv, digest[:])
	require.NoError(t, err)

	txResp := postJSON(t, srv, "/add_transaction", apiTransfer{
		From:      alice.addr.String(),
		To:        bob.addr.String(),
		Amount:    "100",
		Signature: sig.String(),
	})
	require.Equal(t, http.StatusOK, txResp.StatusCode)

	mineResp := postJSON(t, srv, "/try_mine", mineInfo{Miner: miner.addr.String(), Signature: primitives.Signature{}.String()})
	require.Equal(t, http.StatusOK, mineResp.StatusCode)

	bobBalanceResp := getJSON(t, srv, "/get_balance/"+bob.addr.String())
	var bobBalance string
	decodeBody(t, bobBalanceResp, &bobBalance)
	require.Equal(t, "100", bobBalance)

	minerBalanceResp := getJSON(t, srv, "/get_balance/"+miner.addr.String())
	var minerBalance string
	decodeBody(t, minerBalanceResp, &minerBalance)
	require.Equal(t, "50", minerBalance)

	txHash := cryptoutil.HashMessage(transferHash).String()
	confirmedResp := getJSON(t, srv, "/get_transaction/"+txHash)
	require.Equal(t, http.StatusOK, confirmedResp.StatusCode)
	var confirmed map[string]interface{}
	decodeBody(t, confirmedResp, &confirmed)
	require.Equal(t, "confirmed", confirmed["Status"])
}

func TestGetProofPositiveAndNegative(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()

	alice := newTestKey(t, 1)
	bob := newTestKey(t, 2)
	miner := newTestKey(t, 3)
	postJSON(t, srv, "/mint", apiMint{To: alice.addr.String(), Amount: "1000"})

	var hashes []string
	for i := 0; i < 3; i++ {
		nonceResp := getJSON(t, srv, "/get_nonce/"+alice.addr.String())
		var nonce uint64
		decodeBody(t, nonceResp, &nonce)

		input := cryptoutil.TransferHashInput(alice.addr, bob.addr, "10", nonce)
		digest := cryptoutil.HashMessage(input)
		sig, err := cryptoutil.Sign(alice.priv, digest[:])
		require.NoError(t, err)

		resp := postJSON(t, srv, "/add_transaction", apiTransfer{
			From:      alice.addr.String(),
			To:        bob.addr.String(),
			Amount:    "10",
			Signature: sig.String(),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		hashes = append(hashes, digest.String())
	}

	mineResp := postJSON(t, srv, "/try_mine", mineInfo{Miner: miner.addr.String(), Signature: primitives.Signature{}.String()})
	require.Equal(t, http.StatusOK, mineResp.StatusCode)

	proofResp := getJSON(t, srv, "/get_proof/"+hashes[0])
	require.Equal(t, http.StatusOK, proofResp.StatusCode)
	var proof []string
	decodeBody(t, proofResp, &proof)
	require.NotEmpty(t, proof)

	positiveResp := getJSONWithBody(t, srv, "/verify_proof", apiVerifyProof{TxHash: hashes[0], Proof: proof})
	var positive bool
	decodeBody(t, positiveResp, &positive)
	require.True(t, positive)

	negativeResp := getJSONWithBody(t, srv, "/verify_proof", apiVerifyProof{TxHash: hashes[1], Proof: proof})
	var negative bool
	decodeBody(t, negativeResp, &negative)
	require.False(t, negative)
}

func TestSignVerifyAndPubKeyEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()

	key := newTestKey(t, 1)
	var message primitives.Hash
	message[0] = 0xAB

	pubResp := getJSON(t, srv, "/get_pub_key/"+key.priv.String())
	var pubHex string
	decodeBody(t, pubResp, &pubHex)
	require.Equal(t, key.addr.String(), pubHex)

	genResp := getJSONWithBody(t, srv, "/generate_sig", apiGenerateSig{PrivateKey: key.priv.String(), Message: message.String()})
	var sigHex string
	decodeBody(t, genResp, &sigHex)
	require.NotEmpty(t, sigHex)

	verResp := getJSONWithBody(t, srv, "/verify_sig", apiVerifySig{PublicKey: pubHex, Message: message.String(), Signature: sigHex})
	var verified bool
	decodeBody(t, verResp, &verified)
	require.True(t, verified)
}

func TestSetModeAndSetTarget(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()

	modeResp := postJSON(t, srv, "/set_mode", "full")
	require.Equal(t, http.StatusOK, modeResp.StatusCode)

	getModeResp := getJSON(t, srv, "/get_mode")
	var mode string
	decodeBody(t, getModeResp, &mode)
	require.Equal(t, "full", mode)

	targetResp := postJSON(t, srv, "/set_target", 5)
	require.Equal(t, http.StatusOK, targetResp.StatusCode)

	getTargetResp := getJSON(t, srv, "/get_target")
	var target int
	decodeBody(t, getTargetResp, &target)
	require.Equal(t, 5, target)
}

func TestTryMineFullModeRejectsBlockBelowTarget(t *testing.T) {
	// primitives.HashSize+1 leading zero bytes is unreachable by any 32-byte
	// block hash, so a correctly signed try_mine request is rejected on
	// difficulty alone and nothing is mutated.
	srv, _ := newTestServer(t, config.ModeFull, primitives.HashSize+1)
	defer srv.Close()

	alice := newTestKey(t, 1)
	bob := newTestKey(t, 2)
	miner := newTestKey(t, 3)
	mintResp := postJSON(t, srv, "/mint", apiMint{To: alice.addr.String(), Amount: "100"})
	require.Equal(t, http.StatusOK, mintResp.StatusCode)

	nonceResp := getJSON(t, srv, "/get_nonce/"+alice.addr.String())
	var nonce uint64
	decodeBody(t, nonceResp, &nonce)

	input := cryptoutil.TransferHashInput(alice.addr, bob.addr, "10", nonce)
	txHash := cryptoutil.HashMessage(input)
	sig, err := cryptoutil.Sign(alice.priv, txHash[:])
	require.NoError(t, err)

	txResp := postJSON(t, srv, "/add_transaction", apiTransfer{
		From:      alice.addr.String(),
		To:        bob.addr.String(),
		Amount:    "10",
		Signature: sig.String(),
	})
	require.Equal(t, http.StatusOK, txResp.StatusCode)

	tree := merkle.New(8)
	require.NoError(t, tree.Initialize([]primitives.Hash{txHash}))
	root, err := tree.Root()
	require.NoError(t, err)

	const mineNonce = uint64(7)
	mineMsg := cryptoutil.MineMessageInput(miner.addr, primitives.ZeroHash, root, mineNonce)
	mineDigest := cryptoutil.HashMessage(mineMsg)
	mineSig, err := cryptoutil.Sign(miner.priv, mineDigest[:])
	require.NoError(t, err)

	mineResp := postJSON(t, srv, "/try_mine", mineInfo{Miner: miner.addr.String(), Nonce: mineNonce, Signature: mineSig.String()})
	require.Equal(t, http.StatusBadRequest, mineResp.StatusCode)
	var body errorBody
	decodeBody(t, mineResp, &body)
	require.Equal(t, "Block does not meet target", body.Message)

	heightResp := getJSON(t, srv, "/block_height")
	var height uint64
	decodeBody(t, heightResp, &height)
	require.Equal(t, uint64(0), height)

	txStatusResp := getJSON(t, srv, "/get_transaction/"+txHash.String())
	var txStatus map[string]interface{}
	decodeBody(t, txStatusResp, &txStatus)
	require.Equal(t, "pending", txStatus["Status"])

	minerBalanceResp := getJSON(t, srv, "/get_balance/"+miner.addr.String())
	var minerBalance string
	decodeBody(t, minerBalanceResp, &minerBalance)
	require.Equal(t, "0", minerBalance)
}

func TestGetBlockByIDNotFound(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeTest, 1)
	defer srv.Close()

	resp := getJSON(t, srv, "/get_block_by_id/99")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
