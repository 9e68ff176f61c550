package http

import "github.com/labstack/echo/v4"

// Register mounts the ledger API. Writes are POSTs so the idempotency
// middleware covers them.
func Register(e *echo.Echo, h *Handler, lh *LedgerHandler) {
	e.GET("/health", h.Health)

	e.POST("/ledger/init", lh.Init)
	e.GET("/ledger/config", lh.GetConfig)
	e.GET("/ledger/admin", lh.GetAdmin)
	e.GET("/ledger/fee", lh.GetFee)
	e.GET("/ledger/vc-stake-required", lh.GetVCStakeRequired)

	e.POST("/startups", lh.Apply)
	e.GET("/startups", lh.ListStartups)
	e.GET("/startups/:founder", lh.GetStartup)
	e.POST("/startups/:founder/approve", lh.ApproveApplication)
	e.POST("/startups/:founder/votes", lh.Vote)
	e.GET("/startups/:founder/votes/:voter", lh.HasVoted)
	e.POST("/startups/:founder/fund", lh.FundStartup)
	e.POST("/startups/:founder/unlock", lh.UnlockMilestone)
	e.POST("/startups/:founder/claim", lh.ClaimFunds)

	e.POST("/vcs/stake", lh.StakeToBecomeVC)
	e.POST("/vcs/requests", lh.RequestVC)
	e.GET("/vcs/requests/:vc", lh.GetVCRequest)
	e.GET("/vcs", lh.ListVCs)
	e.GET("/vcs/:vc", lh.GetVC)
	e.GET("/vcs/:vc/is-vc", lh.IsVC)
	e.POST("/vcs/:vc/approve", lh.ApproveVC)
	e.POST("/vcs/:vc/invest", lh.Invest)
	e.POST("/vcs/:vc/withdraw", lh.WithdrawStake)
	e.GET("/vcs/:vc/investments/:founder", lh.GetInvestment)
}
