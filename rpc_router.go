package main

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

type RPCRouter struct {
	Node            *RPCNode
	Config          *Config
	AccountService  *AccountService
	ReportService   *ReportService
	ForecastService *ForecastService
	DB              *gorm.DB
	Metrics         *Metrics

	lg log.Logger
}

func NewRPCRouter(
	node *RPCNode,
	conf *Config,
	accountService *AccountService,
	reportService *ReportService,
	forecastService *ForecastService,
	db *gorm.DB,
	metrics *Metrics,
	lg log.Logger,
) *RPCRouter {
	r := &RPCRouter{
		Node:            node,
		Config:          conf,
		AccountService:  accountService,
		ReportService:   reportService,
		ForecastService: forecastService,
		DB:              db,
		Metrics:         metrics,
		lg:              lg.WithName("rpc-router"),
	}

	r.Node.OnConnect(r.HandleConnect)
	r.Node.OnDisconnect(r.HandleDisconnect)
	r.Node.OnMessageSent(r.HandleMessageSent)

	r.Node.Use(r.LoggerMiddleware)
	r.Node.Use(r.MetricsMiddleware)
	r.Node.Handle("ping", r.HandlePing)
	r.Node.Handle("get_accounts", r.HandleGetAccounts)
	r.Node.Handle("get_account_tree", r.HandleGetAccountTree)
	r.Node.Handle("get_trial_balance", r.HandleGetTrialBalance)
	r.Node.Handle("get_balance_sheet", r.HandleGetBalanceSheet)
	r.Node.Handle("get_income_statement", r.HandleGetIncomeStatement)
	r.Node.Handle("get_account_movements", r.HandleGetAccountMovements)
	r.Node.Handle("get_forecast", r.HandleGetForecast)

	privGroup := r.Node.NewGroup("private")
	privGroup.Use(r.AuthMiddleware)
	privGroup.Handle("create_account", r.HandleCreateAccount)
	privGroup.Handle("update_account", r.HandleUpdateAccount)
	privGroup.Handle("delete_account", r.HandleDeleteAccount)
	privGroup.Handle("import_accounts", r.HandleImportAccounts)

	return r
}

func (r *RPCRouter) HandleConnect(actor string) {
	// Increment connection metrics
	r.Metrics.ConnectionsTotal.Inc()
	r.Metrics.ConnectedClients.Inc()
}

func (r *RPCRouter) HandleDisconnect(actor string) {
	// Decrement connection metrics
	r.Metrics.ConnectedClients.Dec()
}

func (r *RPCRouter) HandleMessageSent() {
	// Increment sent message counter
	r.Metrics.MessageSent.Inc()
}

func (r *RPCRouter) LoggerMiddleware(c *RPCContext) {
	logger := r.lg.WithKV("requestID", c.Message.Req.RequestID)
	c.Context = log.SetContextLogger(c.Context, logger)

	c.Next()

	if c.Message.Res == nil {
		logger.Warn("RPC response is nil",
			"actor", c.Actor,
			"method", c.Message.Req.Method,
		)
		return
	}

	if c.Message.Res.Method == "error" {
		logger.Warn("failed to handle RPC request",
			"actor", c.Actor,
			"method", c.Message.Req.Method,
			"error", c.Message.Res.Params,
		)
	}
}

func (r *RPCRouter) MetricsMiddleware(c *RPCContext) {
	// Increment received message counter
	r.Metrics.MessageReceived.Inc()

	reqMethod := c.Message.Req.Method
	c.Next()

	status := "success"
	if c.Message.Res == nil || c.Message.Res.Method == "error" {
		status = "failure"
	}

	r.Metrics.RPCRequests.WithLabelValues(reqMethod, status).Inc()
}

// AuthMiddleware rejects mutations from anonymous connections. The actor
// identity arrives on the upgrade request header and is fixed for the
// connection's lifetime.
func (r *RPCRouter) AuthMiddleware(c *RPCContext) {
	if c.Actor == "" {
		c.Fail(AppErrorf(CodeAuthRequired, "actor identity required for %s", c.Message.Req.Method), "")
		return
	}

	c.Next()
}

func (r *RPCRouter) HandlePing(c *RPCContext) {
	c.Succeed("pong", nil)
}

func parseParams(params RPCDataParams, unmarshalTo any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to parse parameters: %w", err)
	}

	err = json.Unmarshal(paramsJSON, &unmarshalTo)
	if err != nil {
		return err
	}

	return getValidator().Struct(unmarshalTo)
}
