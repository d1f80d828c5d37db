package paymentdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/coordinator"
	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/internal/middleware"
	"github.com/go-petr/pet-payments/pkg/errorspkg"
	"github.com/go-petr/pet-payments/pkg/randompkg"
	"github.com/go-petr/pet-payments/pkg/tokenpkg"
	"github.com/go-petr/pet-payments/pkg/web"
)

func randomTransaction(clientID int32) domain.Transaction {
	return domain.Transaction{
		ID:              uuid.New(),
		ClientID:        clientID,
		DebtorAccount:   randompkg.Account(),
		CreditorAccount: randompkg.Account(),
		Amount:          randompkg.MoneyAmountBetween(1, 1000),
		Currency:        randompkg.Currency(),
		CreatedAt:       time.Now().UTC(),
	}
}

func TestCreatePaymentAPI(t *testing.T) {
	clientID := randompkg.ClientID()
	tx := randomTransaction(clientID)

	body := gin.H{
		"debtor_account":    tx.DebtorAccount,
		"creditor_account":  tx.CreditorAccount,
		"instructed_amount": tx.Amount,
		"currency":          tx.Currency,
	}

	wantPayment := domain.Payment{
		ClientID:        clientID,
		DebtorAccount:   tx.DebtorAccount,
		CreditorAccount: tx.CreditorAccount,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
	}

	without := func(key string) gin.H {
		b := gin.H{}
		for k, v := range body {
			if k != key {
				b[k] = v
			}
		}

		return b
	}

	testCases := []struct {
		name           string
		clientID       string
		requestBody    gin.H
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
		wantTx         *domain.Transaction
	}{
		{
			name:        "OK",
			clientID:    strconv.Itoa(int(clientID)),
			requestBody: body,
			buildStubs: func(s *MockService) {
				s.EXPECT().Pay(gomock.Any(), gomock.Eq(wantPayment)).Times(1).Return(tx, nil)
			},
			wantStatusCode: http.StatusOK,
			wantTx:         &tx,
		},
		{
			name:           "MissingClientID",
			requestBody:    body,
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInvalidClientID.Error(),
		},
		{
			name:           "NonNumericClientID",
			clientID:       "ONE!",
			requestBody:    body,
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInvalidClientID.Error(),
		},
		{
			name:           "MissingDebtor",
			clientID:       "1",
			requestBody:    without("debtor_account"),
			wantStatusCode: http.StatusBadRequest,
			wantError:      "DebtorAccount field is required",
		},
		{
			name:           "MissingAmount",
			clientID:       "1",
			requestBody:    without("instructed_amount"),
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount field is required",
		},
		{
			name:     "InvalidCurrency",
			clientID: "1",
			requestBody: gin.H{
				"debtor_account":    tx.DebtorAccount,
				"creditor_account":  tx.CreditorAccount,
				"instructed_amount": tx.Amount,
				"currency":          "DOLLAR",
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Currency is not a supported currency",
		},
		{
			name:        "ServiceValidation",
			clientID:    "1",
			requestBody: body,
			buildStubs: func(s *MockService) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(1).Return(domain.Transaction{}, domain.ErrSameAccount)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrSameAccount.Error(),
		},
		{
			name:        "Conflict",
			clientID:    "1",
			requestBody: body,
			buildStubs: func(s *MockService) {
				err := &domain.ConflictError{Tier: domain.TierClient, Key: "1"}
				s.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(1).Return(domain.Transaction{}, err)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrLockConflict.Error(),
		},
		{
			name:        "Canceled",
			clientID:    "1",
			requestBody: body,
			buildStubs: func(s *MockService) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(1).Return(domain.Transaction{}, completion.ErrCanceled)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      completion.ErrCanceled.Error(),
		},
		{
			name:        "InternalError",
			clientID:    "1",
			requestBody: body,
			buildStubs: func(s *MockService) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(1).Return(domain.Transaction{}, domain.ErrInternalExecution)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			if tc.buildStubs != nil {
				tc.buildStubs(service)
			} else {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			}

			server := gin.New()
			server.POST("/payments", NewHandler(service).Create)

			b, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			request := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(b))
			if tc.clientID != "" {
				request.Header.Set(ClientIDHeader, tc.clientID)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantTx != nil {
				var got struct {
					Data data `json:"data"`
				}

				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))

				if diff := cmp.Diff(*tc.wantTx, got.Data.Transaction, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
					t.Errorf("response transaction mismatch (-want +got):\n%s", diff)
				}

				return
			}

			var got web.Response
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
			require.Equal(t, tc.wantError, got.Error)
		})
	}
}

func TestCreatePaymentWithToken(t *testing.T) {
	maker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	tx := randomTransaction(7)

	testCases := []struct {
		name           string
		tokenClientID  int32
		noToken        bool
		buildStubs     func(s *MockService)
		wantStatusCode int
	}{
		{
			name:          "OK",
			tokenClientID: 7,
			buildStubs: func(s *MockService) {
				s.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(1).Return(tx, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "OtherClient",
			tokenClientID:  8,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "NoToken",
			noToken:        true,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			if tc.buildStubs != nil {
				tc.buildStubs(service)
			} else {
				service.EXPECT().Pay(gomock.Any(), gomock.Any()).Times(0)
			}

			server := gin.New()
			server.POST("/payments", middleware.AuthMiddleware(maker), NewHandler(service).Create)

			b, err := json.Marshal(gin.H{
				"debtor_account":    tx.DebtorAccount,
				"creditor_account":  tx.CreditorAccount,
				"instructed_amount": tx.Amount,
				"currency":          tx.Currency,
			})
			require.NoError(t, err)

			request := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(b))
			request.Header.Set(ClientIDHeader, "7")

			if !tc.noToken {
				err = middleware.AddAuthorization(request, maker, middleware.AuthTypeBearer, tc.tokenClientID, time.Minute)
				require.NoError(t, err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
		})
	}
}

func TestStatusAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	want := coordinator.Stats{ActiveTransactions: 1, ClientLocks: 4, AccountLocks: 8}

	service := NewMockService(ctrl)
	service.EXPECT().Status(gomock.Any()).Times(1).Return(want)

	server := gin.New()
	server.GET("/status", NewHandler(service).Status)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Data coordinator.Stats `json:"data"`
	}

	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	require.Equal(t, want, got.Data)
}
