package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"equipquote/collections"
	"equipquote/config"
	"equipquote/handlers"
	"equipquote/services"
)

func main() {
	cfg := config.MustLoad()
	log.Printf("Starting with %s", cfg)

	app := pocketbase.New()

	quotes := services.NewQuoteService(app, cfg)
	inland := services.NewInlandService(app, cfg)
	docs := services.NewDocuments(app, cfg)
	notifier := services.NewNotifier(app, services.NewMailer(app, cfg.Email), cfg.Email.SalesTo)
	statuses := services.NewStatusService(app, notifier, cfg.Quote.ValidityDays)

	services.BindEquipmentHooks(app)
	app.RootCmd.AddCommand(newImportCmd(app))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateQuoteLineage(app); err != nil {
			log.Printf("Warning: quote lineage migration failed: %v", err)
		}
		if n, err := services.BackfillEquipmentTypes(app); err != nil {
			log.Printf("Warning: equipment type backfill failed: %v", err)
		} else if n > 0 {
			log.Printf("Classified %d equipment models", n)
		}
		return se.Next()
	})

	// Scheduled jobs
	app.Cron().MustAdd("expire_quotes", cfg.Jobs.ExpirySchedule, func() {
		n, err := statuses.ExpireOverdue(context.Background())
		if err != nil {
			app.Logger().Error("quote expiry failed", "error", err)
			return
		}
		if n > 0 {
			app.Logger().Info("expired overdue quotes", "count", n)
		}
	})
	app.Cron().MustAdd("reminder_digest", cfg.Jobs.ReminderSchedule, func() {
		n, err := notifier.NotifyOverdueReminders(context.Background(), time.Now())
		if err != nil {
			app.Logger().Error("reminder digest failed", "error", err)
			return
		}
		if n > 0 {
			app.Logger().Info("sent reminder digest", "reminders", n)
		}
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		api := se.Router.Group("/api")
		auth := apis.RequireAuth()

		// ── Equipment catalog ────────────────────────────────────
		api.GET("/equipment/makes", handlers.HandleMakeList(app))
		api.GET("/equipment/makes/{makeId}/models", handlers.HandleModelList(app))
		api.GET("/equipment/models/{modelId}/dimensions", handlers.HandleDimensionsGet(app))
		api.PUT("/equipment/models/{modelId}/dimensions", handlers.HandleDimensionsSave(app)).Bind(auth)
		api.GET("/equipment/models/{modelId}/costs", handlers.HandleModelCosts(app))
		api.GET("/equipment/classify", handlers.HandleClassify())

		// ── Quotes, shared by both kinds ─────────────────────────
		kinds := []struct {
			prefix  string
			kind    services.QuoteKind
			lineage *services.Lineage
		}{
			{"/quotes", services.KindDismantle, quotes.Lineage()},
			{"/inland", services.KindInland, inland.Lineage()},
		}
		for _, k := range kinds {
			api.GET(k.prefix, handlers.HandleQuoteList(app, k.kind))
			api.GET(k.prefix+"/{id}", handlers.HandleQuoteGet(app, k.kind))
			api.GET(k.prefix+"/{id}/versions", handlers.HandleQuoteHistory(k.lineage))
			api.GET(k.prefix+"/{id}/pdf", handlers.HandleQuotePDF(docs, k.kind))
			api.GET(k.prefix+"/{id}/preview", handlers.HandleQuotePreview(docs, k.kind))
			api.POST(k.prefix+"/{id}/status", handlers.HandleQuoteStatus(statuses, k.kind)).Bind(auth)
			api.POST(k.prefix+"/{id}/email", handlers.HandleQuoteEmail(app, docs, notifier, statuses, k.kind)).Bind(auth)
		}

		// ── Dismantle quotes ─────────────────────────────────────
		api.POST("/quotes/calc", handlers.HandleQuoteCalc(quotes))
		api.POST("/quotes", handlers.HandleQuoteCreate(app, quotes)).Bind(auth)
		api.PUT("/quotes/{id}", handlers.HandleQuoteUpdate(quotes)).Bind(auth)
		api.POST("/quotes/{id}/versions", handlers.HandleQuoteVersion(quotes)).Bind(auth)

		// ── Inland transport quotes ──────────────────────────────
		api.POST("/inland/calc", handlers.HandleInlandCalc(inland))
		api.POST("/inland", handlers.HandleInlandCreate(inland)).Bind(auth)
		api.PUT("/inland/{id}", handlers.HandleInlandUpdate(inland)).Bind(auth)
		api.POST("/inland/{id}/versions", handlers.HandleInlandVersion(inland)).Bind(auth)

		// ── CRM ──────────────────────────────────────────────────
		api.GET("/companies", handlers.HandleCompanyList(app))
		api.GET("/companies/{id}", handlers.HandleCompanyGet(app))
		api.POST("/companies", handlers.HandleCompanyCreate(app)).Bind(auth)
		api.PUT("/companies/{id}", handlers.HandleCompanyUpdate(app)).Bind(auth)
		api.DELETE("/companies/{id}", handlers.HandleCompanyDelete(app)).Bind(auth)

		api.GET("/contacts", handlers.HandleContactList(app))
		api.POST("/contacts", handlers.HandleContactCreate(app)).Bind(auth)
		api.PUT("/contacts/{id}", handlers.HandleContactUpdate(app)).Bind(auth)
		api.DELETE("/contacts/{id}", handlers.HandleContactDelete(app)).Bind(auth)

		api.GET("/customers", handlers.HandleCustomerList(app))
		api.POST("/customers", handlers.HandleCustomerCreate(app)).Bind(auth)
		api.PUT("/customers/{id}", handlers.HandleCustomerUpdate(app)).Bind(auth)
		api.DELETE("/customers/{id}", handlers.HandleCustomerDelete(app)).Bind(auth)

		api.GET("/reminders", handlers.HandleReminderList(app)).Bind(auth)
		api.POST("/reminders", handlers.HandleReminderCreate(app)).Bind(auth)
		api.POST("/reminders/{id}/complete", handlers.HandleReminderComplete(app)).Bind(auth)
		api.DELETE("/reminders/{id}", handlers.HandleReminderDelete(app)).Bind(auth)

		api.GET("/activity", handlers.HandleActivityList(app))
		api.POST("/activity", handlers.HandleActivityCreate(app)).Bind(auth)

		// ── Reports and search ───────────────────────────────────
		api.GET("/reports/pipeline", handlers.HandlePipelineReport(app))
		api.GET("/reports/quotes.xlsx", handlers.HandleQuoteExport(app))
		api.GET("/search", handlers.HandleSearch(app))
		api.GET("/email-logs", handlers.HandleEmailLogList(app)).Bind(auth)

		// ── Settings, templates, user ────────────────────────────
		api.GET("/company/settings", handlers.HandleSettingsGet(app, cfg))
		api.PUT("/company/settings", handlers.HandleSettingsSave(app, cfg)).Bind(auth)
		api.GET("/templates", handlers.HandleTemplateList(app))
		api.GET("/templates/{id}", handlers.HandleTemplateGet(app))
		api.POST("/templates", handlers.HandleTemplateSave(app)).Bind(auth)
		api.PUT("/templates/{id}", handlers.HandleTemplateSave(app)).Bind(auth)
		api.DELETE("/templates/{id}", handlers.HandleTemplateDelete(app)).Bind(auth)
		api.GET("/user/me", handlers.HandleCurrentUser()).Bind(auth)

		// ── Import ───────────────────────────────────────────────
		upload := handlers.UploadLimitMiddleware(cfg.Import.MaxUploadBytes)
		api.GET("/import/{table}/template", handlers.HandleImportTemplate(app))
		api.POST("/import/{table}/preview", handlers.HandleImportPreview(app, cfg)).Bind(auth).BindFunc(upload)
		api.POST("/import/{table}/commit", handlers.HandleImportCommit(app, cfg)).Bind(auth).BindFunc(upload)
		api.POST("/import/{table}/errors", handlers.HandleImportErrorReport()).Bind(auth)

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/_/")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
