package paymentdelivery

import (
	"log"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/go-petr/pet-payments/pkg/currencypkg"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("currency", currencypkg.ValidCurrency); err != nil {
			log.Fatalf("cannot register currency validator: %v", err)
		}
	}

	os.Exit(m.Run())
}
