package tests

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

const configPath = "../../../configs"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
