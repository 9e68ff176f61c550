package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domain "deco-ledger/internal/domain/ledger"
	"deco-ledger/internal/usecase/ledger"
)

type LedgerHandler struct{ uc *ledger.Usecase }

func NewLedgerHandler(uc *ledger.Usecase) *LedgerHandler { return &LedgerHandler{uc: uc} }

// ---- access control ----

type initReq struct {
	Admin           string `json:"admin" validate:"required,principal"`
	ApplicationFee  int64  `json:"application_fee" validate:"gte=0"`
	VCStakeRequired int64  `json:"vc_stake_required" validate:"gte=0"`
}

func (h *LedgerHandler) Init(c echo.Context) error {
	var req initReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	err := h.uc.Init(c.Request().Context(), ledger.InitInput{
		Admin:           domain.Principal(req.Admin),
		ApplicationFee:  req.ApplicationFee,
		VCStakeRequired: req.VCStakeRequired,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"admin": req.Admin})
}

type configResp struct {
	domain.AdminConfig
	Initialized bool          `json:"initialized"`
	Policy      domain.Policy `json:"policy"`
}

func (h *LedgerHandler) GetConfig(c echo.Context) error {
	cfg, err := h.uc.GetConfig(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, configResp{AdminConfig: cfg, Initialized: cfg.Admin != "", Policy: h.uc.Policy()})
}

func (h *LedgerHandler) GetAdmin(c echo.Context) error {
	admin, err := h.uc.GetAdmin(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"admin": admin})
}

func (h *LedgerHandler) GetFee(c echo.Context) error {
	fee, err := h.uc.GetFee(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"application_fee": fee})
}

func (h *LedgerHandler) GetVCStakeRequired(c echo.Context) error {
	stake, err := h.uc.GetVCStakeRequired(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"vc_stake_required": stake})
}

// ---- startups ----

type applyReq struct {
	Founder     string `json:"founder" validate:"required,principal"`
	FundingGoal int64  `json:"funding_goal" validate:"gte=0"`
	ProjectName string `json:"project_name" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	ProjectURL  string `json:"project_url" validate:"omitempty,url"`
	TeamInfo    string `json:"team_info" validate:"max=5000"`
	MetadataCID string `json:"metadata_cid" validate:"cid"`
}

func (h *LedgerHandler) Apply(c echo.Context) error {
	var req applyReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Apply(c.Request().Context(), ledger.ApplyInput{
		Founder:     domain.Principal(req.Founder),
		FundingGoal: req.FundingGoal,
		Metadata: domain.ProjectMetadata{
			ProjectName: req.ProjectName,
			Description: req.Description,
			ProjectURL:  req.ProjectURL,
			TeamInfo:    req.TeamInfo,
			MetadataCID: req.MetadataCID,
		},
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LedgerHandler) GetStartup(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	dto, err := h.uc.GetStartupStatus(c.Request().Context(), founder)
	if err != nil {
		return writeError(c, err)
	}
	if dto == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: string(domain.CodeNotFound)})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LedgerHandler) ListStartups(c echo.Context) error {
	list, err := h.uc.GetAllStartups(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"startups": list})
}

type adminReq struct {
	Admin string `json:"admin" validate:"required,principal"`
}

func (h *LedgerHandler) ApproveApplication(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	var req adminReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.ApproveApplication(c.Request().Context(), domain.Principal(req.Admin), founder); err != nil {
		return writeError(c, err)
	}
	return h.GetStartup(c)
}

type voteReq struct {
	Voter   string `json:"voter" validate:"required,principal"`
	VoteYes *bool  `json:"vote_yes" validate:"required"`
}

func (h *LedgerHandler) Vote(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	var req voteReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	err := h.uc.Vote(c.Request().Context(), ledger.VoteInput{
		Voter:   domain.Principal(req.Voter),
		Founder: founder,
		VoteYes: *req.VoteYes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"voter": req.Voter, "founder": founder, "vote_yes": *req.VoteYes})
}

func (h *LedgerHandler) HasVoted(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	voter, ok := pathPrincipal(c, "voter")
	if !ok {
		return badRequest(c, "invalid voter")
	}
	voted, err := h.uc.HasVoted(c.Request().Context(), voter, founder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"has_voted": voted})
}

// ---- escrow ----

type fundReq struct {
	Admin       string `json:"admin" validate:"required,principal"`
	TotalAmount int64  `json:"total_amount" validate:"gte=0"`
}

func (h *LedgerHandler) FundStartup(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	var req fundReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.FundStartup(c.Request().Context(), domain.Principal(req.Admin), founder, req.TotalAmount); err != nil {
		return writeError(c, err)
	}
	return h.GetStartup(c)
}

type unlockReq struct {
	Admin  string `json:"admin" validate:"required,principal"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

func (h *LedgerHandler) UnlockMilestone(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	var req unlockReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.UnlockMilestone(c.Request().Context(), domain.Principal(req.Admin), founder, req.Amount); err != nil {
		return writeError(c, err)
	}
	return h.GetStartup(c)
}

type tokenReq struct {
	Token string `json:"token" validate:"required"`
}

func (h *LedgerHandler) ClaimFunds(c echo.Context) error {
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	var req tokenReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	amount, err := h.uc.ClaimFunds(c.Request().Context(), founder, req.Token)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"founder": founder, "claimed": amount})
}

// ---- VCs ----

type stakeReq struct {
	VC          string `json:"vc" validate:"required,principal"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
	Token       string `json:"token" validate:"required"`
}

func (h *LedgerHandler) StakeToBecomeVC(c echo.Context) error {
	var req stakeReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	rec, err := h.uc.StakeToBecomeVC(c.Request().Context(), ledger.StakeInput{
		VC:          domain.Principal(req.VC),
		CompanyName: req.CompanyName,
		Token:       req.Token,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type vcRequestReq struct {
	VC          string `json:"vc" validate:"required,principal"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
}

func (h *LedgerHandler) RequestVC(c echo.Context) error {
	var req vcRequestReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	vc := domain.Principal(req.VC)
	if err := h.uc.RequestVC(c.Request().Context(), vc, req.CompanyName); err != nil {
		return writeError(c, err)
	}
	pending, err := h.uc.GetVCRequest(c.Request().Context(), vc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, pending)
}

func (h *LedgerHandler) GetVCRequest(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	pending, err := h.uc.GetVCRequest(c.Request().Context(), vc)
	if err != nil {
		return writeError(c, err)
	}
	if pending == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: string(domain.CodeNotFound)})
	}
	return c.JSON(http.StatusOK, pending)
}

func (h *LedgerHandler) ApproveVC(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	var req adminReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.ApproveVC(c.Request().Context(), domain.Principal(req.Admin), vc); err != nil {
		return writeError(c, err)
	}
	return h.GetVC(c)
}

type investReq struct {
	Founder string `json:"founder" validate:"required,principal"`
	Amount  int64  `json:"amount" validate:"gt=0"`
	Token   string `json:"token" validate:"required"`
}

func (h *LedgerHandler) Invest(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	var req investReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	founder := domain.Principal(req.Founder)
	err := h.uc.VCInvest(c.Request().Context(), ledger.InvestInput{VC: vc, Founder: founder, Amount: req.Amount, Token: req.Token})
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.uc.GetVCInvestment(c.Request().Context(), vc, founder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"vc": vc, "founder": founder, "amount": req.Amount, "total_invested": total})
}

func (h *LedgerHandler) WithdrawStake(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	var req tokenReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.WithdrawVCStake(c.Request().Context(), vc, req.Token); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"vc": vc, "withdrawn": true})
}

func (h *LedgerHandler) ListVCs(c echo.Context) error {
	list, err := h.uc.GetAllVCs(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"vcs": list})
}

func (h *LedgerHandler) GetVC(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	rec, err := h.uc.GetVCData(c.Request().Context(), vc)
	if err != nil {
		return writeError(c, err)
	}
	if rec == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: string(domain.CodeNotFound)})
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *LedgerHandler) IsVC(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	is, err := h.uc.IsVC(c.Request().Context(), vc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"is_vc": is})
}

func (h *LedgerHandler) GetInvestment(c echo.Context) error {
	vc, ok := pathPrincipal(c, "vc")
	if !ok {
		return badRequest(c, "invalid vc")
	}
	founder, ok := pathPrincipal(c, "founder")
	if !ok {
		return badRequest(c, "invalid founder")
	}
	amount, err := h.uc.GetVCInvestment(c.Request().Context(), vc, founder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"amount": amount})
}
