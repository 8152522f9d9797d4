package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/pal/apps/api/echo"
	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/core/forum"
	"github.com/trezcool/pal/core/grading"
	emailsvc "github.com/trezcool/pal/services/email"
	logsvc "github.com/trezcool/pal/services/logger"
	"github.com/trezcool/pal/storage/database"
	"github.com/trezcool/pal/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	AccountSvc    account.Service
	CatalogSvc    catalog.Service
	AssessmentSvc assessment.Service
	GradingSvc    grading.Service
	EnrollmentSvc enrollment.Service
	ForumSvc      forum.Service
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, os.Stdout), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	std := logsvc.NewStdLogger(conf, os.Stdout)
	std.SetReportCaller(true)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Ping(ctx, db); err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal("setting up database", err)
	}
	return db, db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		AccountSvc:    p.AccountSvc,
		CatalogSvc:    p.CatalogSvc,
		AssessmentSvc: p.AssessmentSvc,
		GradingSvc:    p.GradingSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		ForumSvc:      p.ForumSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	// repositories
	must(c.Provide(sqlxrepos.NewAccountRepository, dig.As(new(account.Repository))))
	must(c.Provide(sqlxrepos.NewCatalogRepository, dig.As(new(catalog.Repository))))
	must(c.Provide(sqlxrepos.NewAssessmentRepository, dig.As(new(assessment.Repository))))
	must(c.Provide(sqlxrepos.NewGradingRepository, dig.As(new(grading.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewForumRepository, dig.As(new(forum.Repository))))

	// services
	must(c.Provide(account.NewService))
	must(c.Provide(catalog.NewService))
	must(c.Provide(assessment.NewService))
	must(c.Provide(grading.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(forum.NewService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
