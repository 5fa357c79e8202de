package main

import (
	"github.com/corebooks/corebooks/pkg/log"
)

func (r *RPCRouter) HandleGetTrialBalance(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params TrialBalanceParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	report, err := r.ReportService.TrialBalance(params)
	if err != nil {
		logger.Error("failed to generate trial balance", "error", err)
		c.Fail(err, "failed to generate trial balance")
		return
	}

	c.Succeed(c.Message.Req.Method, report)
}

func (r *RPCRouter) HandleGetBalanceSheet(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params BalanceSheetParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	report, err := r.ReportService.BalanceSheet(params)
	if err != nil {
		logger.Error("failed to generate balance sheet", "error", err)
		c.Fail(err, "failed to generate balance sheet")
		return
	}

	c.Succeed(c.Message.Req.Method, report)
}

func (r *RPCRouter) HandleGetIncomeStatement(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params IncomeStatementParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	report, err := r.ReportService.IncomeStatement(params)
	if err != nil {
		logger.Error("failed to generate income statement", "error", err)
		c.Fail(err, "failed to generate income statement")
		return
	}

	c.Succeed(c.Message.Req.Method, report)
}

func (r *RPCRouter) HandleGetAccountMovements(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params AccountMovementsParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	report, err := r.ReportService.AccountMovements(params)
	if err != nil {
		logger.Error("failed to generate account movements",
			"accountID", params.AccountID, "error", err)
		c.Fail(err, "failed to generate account movements")
		return
	}

	c.Succeed(c.Message.Req.Method, report)
}

func (r *RPCRouter) HandleGetForecast(c *RPCContext) {
	logger := log.FromContext(c.Context)

	var params ForecastParams
	if err := parseParams(c.Message.Req.Params, &params); err != nil {
		c.Fail(AppErrorf(CodeInvalidRequest, "invalid parameters: %s", err.Error()), "")
		return
	}

	report, err := r.ForecastService.Forecast(params)
	if err != nil {
		logger.Error("failed to generate forecast", "error", err)
		c.Fail(err, "failed to generate forecast")
		return
	}

	c.Succeed(c.Message.Req.Method, report)
}
