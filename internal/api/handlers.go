package api

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/config"
	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/mining"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// apiTransfer is the JSON body of POST /add_transaction, spec.md §6.
// Nonce is accepted for wire compatibility but ignored: the nonce assigned
// to the transaction always comes from the sender's current account nonce
// (spec.md §4.H), not from client input.
type apiTransfer struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// mineInfo is the JSON body of POST /try_mine, spec.md §6.
type mineInfo struct {
	Miner     string `json:"miner"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// apiMint is the JSON body of POST /mint, spec.md §6. Amount is signed
// (i128 in the spec) since mint is also used to debit test fixtures.
type apiMint struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// apiGenerateSig is the JSON body of GET /generate_sig.
type apiGenerateSig struct {
	PrivateKey string `json:"private_key"`
	Message    string `json:"message"`
}

// apiVerifySig is the JSON body of GET /verify_sig.
type apiVerifySig struct {
	PublicKey string `json:"public_key"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// apiVerifyProof is the JSON body of GET /verify_proof, spec.md §6.
type apiVerifyProof struct {
	TxHash string   `json:"tx_hash"`
	Proof  []string `json:"proof"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := primitives.AddressFromHex(pathVar(r, "address"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed address"))
		return
	}
	balance, err := s.Store.Accounts().GetBalance(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, balance)
}

func (s *Server) handleGetNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := primitives.AddressFromHex(pathVar(r, "address"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed address"))
		return
	}
	nonce, err := s.Store.Accounts().GetNonce(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, nonce)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	hash, err := primitives.HashFromHex(pathVar(r, "tx_hash"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed transaction hash"))
		return
	}
	tx, err := s.Store.Transactions().Get(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if tx == nil {
		writeError(w, apierr.New(apierr.CodeNotFound, "transaction not found"))
		return
	}
	writeJSON(w, tx)
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	addr, err := primitives.AddressFromHex(pathVar(r, "address"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed address"))
		return
	}
	txs, err := s.Store.Transactions().GetByParty(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, txs)
}

func (s *Server) handleGetBlockByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := primitives.HashFromHex(pathVar(r, "hash"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed block hash"))
		return
	}
	block, err := s.Store.Blocks().GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if block == nil {
		writeError(w, apierr.New(apierr.CodeNotFound, "block not found"))
		return
	}
	writeJSON(w, block)
}

func (s *Server) handleGetBlockByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(pathVar(r, "id"), 10, 64)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed block id"))
		return
	}
	block, err := s.Store.Blocks().GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if block == nil {
		writeError(w, apierr.New(apierr.CodeNotFound, "block not found"))
		return
	}
	writeJSON(w, block)
}

func (s *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	hash, err := primitives.HashFromHex(pathVar(r, "tx_hash"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed transaction hash"))
		return
	}
	proof, err := s.Protocol.GetProof(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, proof.ToHex())
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Live.Target())
}

func (s *Server) handleBlockHeight(w http.ResponseWriter, r *http.Request) {
	id, _, err := s.Store.Blocks().Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, id)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var body apiTransfer
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	from, err := primitives.AddressFromHex(body.From)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed from address"))
		return
	}
	to, err := primitives.AddressFromHex(body.To)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed to address"))
		return
	}
	amount, err := primitives.BalanceFromString(body.Amount)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed amount"))
		return
	}
	sig, err := primitives.SignatureFromHex(body.Signature)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed signature"))
		return
	}

	tx, err := s.Protocol.AddTransaction(r.Context(), mining.TransferRequest{
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: sig,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tx)
}

func (s *Server) handleTryMine(w http.ResponseWriter, r *http.Request) {
	var body mineInfo
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	miner, err := primitives.AddressFromHex(body.Miner)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed miner address"))
		return
	}
	sig, err := primitives.SignatureFromHex(body.Signature)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed signature"))
		return
	}

	result, err := s.Protocol.TryMine(r.Context(), mining.MineRequest{
		Miner:     miner,
		Nonce:     body.Nonce,
		Signature: sig,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result.Block)
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var target int
	if err := decodeJSON(r, &target); err != nil {
		writeError(w, err)
		return
	}
	if target < 0 {
		writeError(w, apierr.New(apierr.CodeBadRequest, "target must be non-negative"))
		return
	}
	s.Live.SetTarget(target)
	writeJSON(w, nil)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var body apiMint
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	to, err := primitives.AddressFromHex(body.To)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed to address"))
		return
	}
	amount, ok := new(big.Int).SetString(body.Amount, 10)
	if !ok {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed amount"))
		return
	}
	if err := s.Protocol.Mint(r.Context(), to, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, nil)
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, string(s.Live.Mode()))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var modeStr string
	if err := decodeJSON(r, &modeStr); err != nil {
		writeError(w, err)
		return
	}
	mode, err := config.ParseMode(modeStr)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, err.Error()))
		return
	}
	s.Live.SetMode(mode)
	writeJSON(w, nil)
}

func (s *Server) handleGenerateSig(w http.ResponseWriter, r *http.Request) {
	var body apiGenerateSig
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	priv, err := primitives.HashFromHex(body.PrivateKey)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed private key"))
		return
	}
	message, err := primitives.HashFromHex(body.Message)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "message must be a 32-byte hex digest"))
		return
	}
	sig, err := cryptoutil.Sign(priv, message[:])
	if err != nil {
		writeError(w, apierr.New(apierr.CodeInvalidPrivateKey, err.Error()))
		return
	}
	writeJSON(w, sig.String())
}

func (s *Server) handleVerifySig(w http.ResponseWriter, r *http.Request) {
	var body apiVerifySig
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	pub, err := primitives.AddressFromHex(body.PublicKey)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed public key"))
		return
	}
	message, err := primitives.HashFromHex(body.Message)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "message must be a 32-byte hex digest"))
		return
	}
	sig, err := primitives.SignatureFromHex(body.Signature)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed signature"))
		return
	}
	writeJSON(w, cryptoutil.Verify(pub, sig, message[:]) == nil)
}

func (s *Server) handleGetPubKey(w http.ResponseWriter, r *http.Request) {
	priv, err := primitives.HashFromHex(pathVar(r, "priv"))
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed private key"))
		return
	}
	addr, err := cryptoutil.DerivePubKey(priv)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeInvalidPrivateKey, err.Error()))
		return
	}
	writeJSON(w, addr.String())
}

func (s *Server) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	var body apiVerifyProof
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	txHash, err := primitives.HashFromHex(body.TxHash)
	if err != nil {
		writeError(w, apierr.New(apierr.CodeBadRequest, "malformed transaction hash"))
		return
	}
	proof, err := merkle.ProofFromHex(body.Proof)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, proof.Verify(txHash))
}
