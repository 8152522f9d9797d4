package testutil

import (
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	"github.com/trezcool/pal/core/catalog"
	"github.com/trezcool/pal/core/enrollment"
	"github.com/trezcool/pal/core/forum"
	"github.com/trezcool/pal/core/grading"
	"github.com/trezcool/pal/storage/database/sqlxrepos"
)

// Outbox records sent emails instead of delivering them.
type Outbox struct {
	mu       sync.Mutex
	messages []*core.EmailMessage
}

var _ core.EmailService = (*Outbox)(nil)

func (o *Outbox) SendMessages(messages ...*core.EmailMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, messages...)
}

func (o *Outbox) Messages() []*core.EmailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*core.EmailMessage(nil), o.messages...)
}

// Services wires every domain service on top of db.
type Services struct {
	Outbox     *Outbox
	Account    account.Service
	Catalog    catalog.Service
	Assessment assessment.Service
	Grading    grading.Service
	Enrollment enrollment.Service
	Forum      forum.Service
}

func NewServices(db *sqlx.DB) Services {
	svcs := Services{Outbox: &Outbox{}}
	svcs.Account = account.NewService(db, sqlxrepos.NewAccountRepository(db), svcs.Outbox)
	svcs.Catalog = catalog.NewService(sqlxrepos.NewCatalogRepository(db), svcs.Account)
	svcs.Assessment = assessment.NewService(db, sqlxrepos.NewAssessmentRepository(db), svcs.Catalog)
	svcs.Enrollment = enrollment.NewService(db, sqlxrepos.NewEnrollmentRepository(db), svcs.Catalog)
	svcs.Grading = grading.NewService(sqlxrepos.NewGradingRepository(db), svcs.Assessment, svcs.Enrollment)
	svcs.Forum = forum.NewService(db, sqlxrepos.NewForumRepository(db), svcs.Catalog)
	return svcs
}
