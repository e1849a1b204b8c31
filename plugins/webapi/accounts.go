package webapi

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/webapi/jsonmodels"
)

// ErrAccountNotFound is returned if the account does not exist as of the requested block.
var ErrAccountNotFound = errors.New("account not found")

// getAccount is the handler for the /accounts/:publicKey endpoint. The optional query parameters token and asOf select
// the token and the block the state is returned for (the best tip by default).
func (s *Server) getAccount(c echo.Context) error {
	publicKey, err := precomputed.PublicKeyFromBase58(c.Param("publicKey"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonmodels.NewErrorResponse(err))
	}

	token := ledger.DefaultToken
	if tokenParam := c.QueryParam("token"); tokenParam != "" {
		parsedToken, parseErr := strconv.ParseUint(tokenParam, 10, 64)
		if parseErr != nil {
			return c.JSON(http.StatusBadRequest, jsonmodels.NewErrorResponse(errors.Errorf("invalid token %q: %w", tokenParam, parseErr)))
		}
		token = ledger.TokenID(parsedToken)
	}

	asOf := s.indexer.BestTip().StateHash
	if asOfParam := c.QueryParam("asOf"); asOfParam != "" {
		if asOf, err = precomputed.StateHashFromBase58(asOfParam); err != nil {
			return c.JSON(http.StatusBadRequest, jsonmodels.NewErrorResponse(err))
		}
	}

	account, exists, err := s.indexer.Account(ledger.AccountID{Token: token, PublicKey: publicKey}, asOf)
	if err != nil {
		return c.JSON(statusCode(err), jsonmodels.NewErrorResponse(err))
	}
	if !exists {
		return c.JSON(http.StatusNotFound, jsonmodels.NewErrorResponse(errors.Errorf("%s as of %s: %w", publicKey, asOf, ErrAccountNotFound)))
	}

	return c.JSON(http.StatusOK, jsonmodels.NewAccount(account, asOf))
}
