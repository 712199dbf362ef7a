// Package api wires the ledger's HTTP surface (spec.md §6) with
// gorilla/mux, generalized from the teacher's rpc package structure
// (rpc/rpcserver.go's method-table dispatch) into REST-style routes taking
// path parameters or JSON bodies instead of JSON-RPC method names.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/config"
	"github.com/coreledger/ledgerd/internal/ledgerlog"
	"github.com/coreledger/ledgerd/internal/mining"
	"github.com/coreledger/ledgerd/internal/store"
)

var log = ledgerlog.Logger(ledgerlog.SubsystemAPI)

// Server holds the dependencies every handler needs: the store for read
// endpoints, the mining protocol for write endpoints, and the live
// admin-mutable configuration cell.
type Server struct {
	Store    store.Store
	Protocol *mining.Protocol
	Live     *config.Live
}

// NewRouter builds the full mux.Router for spec.md §6's HTTP surface.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/get_balance/{address}", s.handleGetBalance).Methods(http.MethodGet)
	r.HandleFunc("/get_nonce/{address}", s.handleGetNonce).Methods(http.MethodGet)
	r.HandleFunc("/get_transaction/{tx_hash}", s.handleGetTransaction).Methods(http.MethodGet)
	r.HandleFunc("/get_transactions/{address}", s.handleGetTransactions).Methods(http.MethodGet)
	r.HandleFunc("/get_block_by_hash/{hash}", s.handleGetBlockByHash).Methods(http.MethodGet)
	r.HandleFunc("/get_block_by_id/{id}", s.handleGetBlockByID).Methods(http.MethodGet)
	r.HandleFunc("/get_proof/{tx_hash}", s.handleGetProof).Methods(http.MethodGet)
	r.HandleFunc("/get_target", s.handleGetTarget).Methods(http.MethodGet)
	r.HandleFunc("/block_height", s.handleBlockHeight).Methods(http.MethodGet)
	r.HandleFunc("/add_transaction", s.handleAddTransaction).Methods(http.MethodPost)
	r.HandleFunc("/try_mine", s.handleTryMine).Methods(http.MethodPost)
	r.HandleFunc("/set_target", s.handleSetTarget).Methods(http.MethodPost)
	r.HandleFunc("/mint", s.handleMint).Methods(http.MethodPost)
	r.HandleFunc("/get_mode", s.handleGetMode).Methods(http.MethodGet)
	r.HandleFunc("/set_mode", s.handleSetMode).Methods(http.MethodPost)
	r.HandleFunc("/generate_sig", s.handleGenerateSig).Methods(http.MethodGet)
	r.HandleFunc("/verify_sig", s.handleVerifySig).Methods(http.MethodGet)
	r.HandleFunc("/get_pub_key/{priv}", s.handleGetPubKey).Methods(http.MethodGet)
	r.HandleFunc("/verify_proof", s.handleVerifyProof).Methods(http.MethodGet)

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debugf("%s %s", req.Method, req.URL.Path)
		next.ServeHTTP(w, req)
	})
}

// writeJSON encodes v as the 200 response body.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

// writeError maps err to the error body and status code named in spec.md
// §7/§6: apierr.Error carries its own HTTP status, anything else is an
// opaque 500.
func writeError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apierr.Error)
	if !ok {
		apiErr = apierr.Wrap(err)
	}
	if apiErr.Code == apierr.CodeInternal {
		log.Errorf("internal error: %v", apiErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorBody{Message: apiErr.PublicMessage()})
}

type errorBody struct {
	Message string `json:"message"`
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierr.New(apierr.CodeBadRequest, "malformed request body")
	}
	return nil
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
