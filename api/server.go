package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/api/apistrings"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/ledger"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/queue"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/topup"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/transaction"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Config       *utils.Config
	Logger       *logging.Logger
	Tokens       *utils.JWTToken
	IDs          *utils.TokenGenerator
	Queue        *queue.QueueService
	Transactions *transaction.TransactionService
	TopUps       *topup.TopUpService
	Ledger       *ledger.LedgerService
}

type Server struct {
	router       *gin.Engine
	http         *http.Server
	config       *utils.Config
	logger       *logging.Logger
	tokens       *utils.JWTToken
	ids          *utils.TokenGenerator
	queue        *queue.QueueService
	transactions *transaction.TransactionService
	topups       *topup.TopUpService
	ledger       *ledger.LedgerService
	methods      map[string]rpcMethod
}

func NewServer(d Deps) *Server {
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(CORSMiddleware())
	g.Use(d.Logger.LoggingMiddleWare())

	s := &Server{
		router:       g,
		config:       d.Config,
		logger:       d.Logger,
		tokens:       d.Tokens,
		ids:          d.IDs,
		queue:        d.Queue,
		transactions: d.Transactions,
		topups:       d.TopUps,
		ledger:       d.Ledger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%v", d.Config.ServerPort),
		Handler:           g,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.methods = s.rpcMethods()
	s.routes()
	return s
}

func (s *Server) routes() {
	dr := models.SuccessResponse{
		Status:  "success",
		Message: apistrings.Welcome,
		Version: utils.REVISION,
	}

	s.router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dr)
	})

	auth := AuthenticatedMiddleware(s.tokens)
	s.router.GET("/queues", auth, s.queueStats)
	s.router.POST("/rpc", auth, s.handleRPC)
}

// Handler exposes the router, mostly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("rpc server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) queueStats(ctx *gin.Context) {
	stats, err := s.queue.Stats(ctx.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("could not read queue stats")
		ctx.JSON(http.StatusServiceUnavailable, models.NewError(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, models.NewSuccess(apistrings.QueueStats, stats))
}
