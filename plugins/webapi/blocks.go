package webapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/plugins/webapi/jsonmodels"
)

// getBestTip is the handler for the /blocks/bestTip endpoint.
func (s *Server) getBestTip(c echo.Context) error {
	return s.respondWithBlock(c, s.indexer.BestTip())
}

// getCanonicalRoot is the handler for the /blocks/root endpoint.
func (s *Server) getCanonicalRoot(c echo.Context) error {
	return s.respondWithBlock(c, s.indexer.CanonicalRoot())
}

// getBlock is the handler for the /blocks/:stateHash endpoint.
func (s *Server) getBlock(c echo.Context) error {
	stateHash, err := precomputed.StateHashFromBase58(c.Param("stateHash"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonmodels.NewErrorResponse(err))
	}

	block, err := s.indexer.Store().Block(stateHash)
	if err != nil {
		return c.JSON(statusCode(err), jsonmodels.NewErrorResponse(err))
	}

	return s.respondWithBlock(c, block)
}

// getPath is the handler for the /blocks/:stateHash/path endpoint.
func (s *Server) getPath(c echo.Context) error {
	stateHash, err := precomputed.StateHashFromBase58(c.Param("stateHash"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, jsonmodels.NewErrorResponse(err))
	}

	path, err := s.indexer.Path(stateHash)
	if err != nil {
		return c.JSON(statusCode(err), jsonmodels.NewErrorResponse(err))
	}

	return c.JSON(http.StatusOK, jsonmodels.NewPathResponse(path))
}

func (s *Server) respondWithBlock(c echo.Context, block *precomputed.Block) error {
	var status string
	if canonicity, err := s.indexer.Store().Canonicity(block.StateHash); err == nil {
		status = canonicity.String()
	} else if !errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, jsonmodels.NewErrorResponse(err))
	}

	return c.JSON(http.StatusOK, jsonmodels.NewBlock(block, status))
}

// statusCode maps the errors of the query layer to HTTP status codes.
func statusCode(err error) int {
	if errors.Is(err, indexer.ErrUnknownBlock) || errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
