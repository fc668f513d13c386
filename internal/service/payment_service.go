package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/repository"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/stripe"
)

var (
	ErrInvalidSessionID   = errors.New("invalid checkout session id")
	ErrPaymentNotComplete = errors.New("payment not completed")
	ErrEmailMismatch      = errors.New("checkout session does not belong to caller")
	ErrPurchaseNotFound   = errors.New("purchase not found")
	ErrUnknownPack        = errors.New("unknown pack for purchase")
	ErrAmountMismatch     = errors.New("purchase amounts do not match pack")
	ErrChargeMismatch     = errors.New("charged amount does not match purchase")
)

// Gateway sessions carry opaque IDs well past this length; anything shorter
// is rejected before any external call.
const minSessionIDLength = 10

type VerifyResult struct {
	NewBalance       int64 `json:"new_balance"`
	LikesAdded       int64 `json:"likes_added"`
	AlreadyProcessed bool  `json:"already_processed"`
}

// PaymentGateway is the slice of the gateway client the verifier needs.
type PaymentGateway interface {
	RetrieveSession(ctx context.Context, sessionID string) (*stripe.Session, error)
}

type PaymentService interface {
	VerifyAndCredit(ctx context.Context, user *model.UserInfo, sessionID string) (*VerifyResult, error)
}

type DefaultPaymentService struct {
	purchaseRepo repository.PurchaseRepository
	gateway      PaymentGateway
	catalog      PackCatalog
}

func NewPaymentService(
	purchaseRepo repository.PurchaseRepository,
	gateway PaymentGateway,
	catalog PackCatalog,
) PaymentService {
	return &DefaultPaymentService{
		purchaseRepo: purchaseRepo,
		gateway:      gateway,
		catalog:      catalog,
	}
}

// VerifyAndCredit confirms a completed checkout session against its pending
// purchase and credits the caller's like balance exactly once. Safe to call
// any number of times for the same session: repeats and concurrent attempts
// short-circuit on the paid status instead of crediting again.
func (s *DefaultPaymentService) VerifyAndCredit(ctx context.Context, user *model.UserInfo, sessionID string) (*VerifyResult, error) {
	if len(sessionID) < minSessionIDLength {
		return nil, ErrInvalidSessionID
	}

	logrus.Infof("Verifying payment session %s for user %s", sessionID, user.ID)

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.PaymentStatus != stripe.PaymentStatusPaid {
		logrus.Infof("Session %s not paid yet (status: %s)", sessionID, session.PaymentStatus)
		return nil, ErrPaymentNotComplete
	}

	if user.Email == "" || !strings.EqualFold(session.CustomerEmail, user.Email) {
		logrus.Warnf("Session %s billing email does not match caller %s", sessionID, user.ID)
		return nil, ErrEmailMismatch
	}

	purchase, err := s.purchaseRepo.GetByToken(ctx, sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, ErrPurchaseNotFound
	}

	pack, ok := s.catalog.Lookup(purchase.ProductID)
	if !ok {
		logrus.Errorf("Purchase %s references unknown pack %s", purchase.ID, purchase.ProductID)
		return nil, ErrUnknownPack
	}

	if purchase.PriceAmount != pack.PriceAmount || purchase.LikesAmount != pack.LikesAmount {
		logrus.Errorf("Purchase %s amounts (%d likes / %d) disagree with pack %s (%d likes / %d)",
			purchase.ID, purchase.LikesAmount, purchase.PriceAmount,
			purchase.ProductID, pack.LikesAmount, pack.PriceAmount)
		return nil, ErrAmountMismatch
	}

	if session.AmountTotal != purchase.PriceAmount {
		logrus.Errorf("Session %s charged %d but purchase %s recorded %d",
			sessionID, session.AmountTotal, purchase.ID, purchase.PriceAmount)
		return nil, ErrChargeMismatch
	}

	if purchase.Status == model.PurchaseStatusPaid {
		return s.alreadyProcessed(ctx, user.ID)
	}

	claimed, err := s.purchaseRepo.MarkPaid(ctx, purchase.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// A concurrent verification won the pending->paid race.
		logrus.Infof("Purchase %s already claimed by a concurrent verification", purchase.ID)
		return s.alreadyProcessed(ctx, user.ID)
	}

	newBalance, err := s.purchaseRepo.CreditLikes(ctx, user.ID, purchase.LikesAmount)
	if err != nil {
		logrus.WithError(err).Errorf("Purchase %s marked paid but crediting failed", purchase.ID)
		return nil, err
	}

	logrus.Infof("Credited %d likes to user %s (balance now %d)", purchase.LikesAmount, user.ID, newBalance)

	txn := &model.Transaction{
		UserID:      user.ID,
		Type:        model.TransactionTypePurchase,
		Amount:      decimal.NewFromInt(purchase.PriceAmount).Div(decimal.NewFromInt(100)),
		Currency:    purchase.Currency,
		Status:      model.TransactionStatusSucceeded,
		ReferenceID: purchase.ID,
		Metadata: model.Metadata{
			"pack_name":      purchase.PackName,
			"purchase_token": purchase.PurchaseToken,
		},
	}
	// Best-effort audit trail: the balance is already credited, so a failed
	// write here is logged and swallowed.
	if err := s.purchaseRepo.CreateTransaction(ctx, txn); err != nil {
		logrus.WithError(err).Warnf("Failed to record transaction for purchase %s", purchase.ID)
	}

	return &VerifyResult{
		NewBalance:       newBalance,
		LikesAdded:       purchase.LikesAmount,
		AlreadyProcessed: false,
	}, nil
}

func (s *DefaultPaymentService) alreadyProcessed(ctx context.Context, userID string) (*VerifyResult, error) {
	balance, err := s.purchaseRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		NewBalance:       balance.Balance,
		LikesAdded:       0,
		AlreadyProcessed: true,
	}, nil
}
