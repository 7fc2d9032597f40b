package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/settlement"
)

// SettlementRunner is satisfied by *settlement.Verifier: the system CPI
// settlement check of spec C7, run against a fixed set of tree accounts
// this handler was constructed with.
type SettlementRunner interface {
	Verify(ix settlement.InstructionDataInvokeCpi, treePubkeys [][32]byte, trees []settlement.TreeAccount, unfinalized settlement.UnfinalizedChecker, writer settlement.OutputWriter) error
}

// SettlementHandler exposes C7 over HTTP, wired against the deployment's
// real batched tree accounts via settlement.BatchWriter, rather than
// leaving the verifier reachable only from unit tests.
type SettlementHandler struct {
	runner            SettlementRunner
	writer            settlement.OutputWriter
	treePubkeys       [][32]byte
	trees             []settlement.TreeAccount
	unfinalized       settlement.UnfinalizedChecker
	expectedProgramID [32]byte
	logger            lgr.L
}

func NewSettlementHandler(
	runner SettlementRunner,
	writer settlement.OutputWriter,
	treePubkeys [][32]byte,
	trees []settlement.TreeAccount,
	unfinalized settlement.UnfinalizedChecker,
	expectedProgramID [32]byte,
	logger lgr.L,
) *SettlementHandler {
	return &SettlementHandler{
		runner:            runner,
		writer:            writer,
		treePubkeys:       treePubkeys,
		trees:             trees,
		unfinalized:       unfinalized,
		expectedProgramID: expectedProgramID,
		logger:            logger,
	}
}

// HandleSettle answers POST /api/settle: runs spec §4.7's settlement
// algorithm over the submitted instruction payload and, on success, applies
// its effects to the wired tree accounts via writer.
func (h *SettlementHandler) HandleSettle(w http.ResponseWriter, r *http.Request) {
	var ix settlement.InstructionDataInvokeCpi
	if err := json.NewDecoder(r.Body).Decode(&ix); err != nil {
		writeErrorResponse(w, err, "invalid request body")
		return
	}
	if h.expectedProgramID != ([32]byte{}) && ix.InvokingProgramID != h.expectedProgramID {
		writeErrorResponse(w, fmt.Errorf("settlement: invoking_program_id does not match deployment"), "invoking program id rejected")
		return
	}
	if err := h.runner.Verify(ix, h.treePubkeys, h.trees, h.unfinalized, h.writer); err != nil {
		h.logger.Logf("WARN settlement verification rejected: %v", err)
		writeErrorResponse(w, err, "settlement verification failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
