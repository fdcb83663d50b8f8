package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/civicwatch/case-api/api/handlers"
	"github.com/civicwatch/case-api/api/scheduler"
	"github.com/civicwatch/case-api/config"
	"github.com/civicwatch/case-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	sched := scheduler.NewScheduler(databases.NewCaseDatabase(a.DBHelper()), a.Config.AlertsEmail)
	sched.Start()
	defer sched.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("case-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
