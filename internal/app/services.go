package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pressroom-backend/internal/clients/cloudinary"
	"github.com/yungbote/pressroom-backend/internal/clients/crawler"
	"github.com/yungbote/pressroom-backend/internal/clients/deepresearch"
	"github.com/yungbote/pressroom-backend/internal/clients/mux"
	"github.com/yungbote/pressroom-backend/internal/clients/newsapi"
	"github.com/yungbote/pressroom-backend/internal/clients/redis"
	"github.com/yungbote/pressroom-backend/internal/clients/videogen"
	repos "github.com/yungbote/pressroom-backend/internal/data/repos/content"
	"github.com/yungbote/pressroom-backend/internal/kg"
	"github.com/yungbote/pressroom-backend/internal/media"
	"github.com/yungbote/pressroom-backend/internal/narrative"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
	"github.com/yungbote/pressroom-backend/internal/platform/neo4jdb"
	"github.com/yungbote/pressroom-backend/internal/platform/openai"
	"github.com/yungbote/pressroom-backend/internal/research"
	"github.com/yungbote/pressroom-backend/internal/temporalx/pipeline"
)

type Clients struct {
	AI       openai.Client
	News     newsapi.Client
	Deep     deepresearch.Client
	Crawler  crawler.Client
	Video    videogen.Client
	Media    mux.Client
	CDN      cloudinary.Client
	Graph    *neo4jdb.Client
	Progress redis.ProgressBus
}

// wireClients builds every external adapter. The model is mandatory; the
// rest degrade to nil and the pipelines route around them.
func wireClients(log *logger.Logger) (Clients, error) {
	var c Clients
	var err error

	if c.AI, err = openai.NewClient(log); err != nil {
		return c, err
	}
	if c.News, err = newsapi.NewClient(log); err != nil {
		log.Warn("news search disabled", "error", err)
		c.News = nil
	}
	if c.Deep, err = deepresearch.NewClient(log); err != nil {
		log.Warn("deep research disabled", "error", err)
		c.Deep = nil
	}
	if c.Crawler, err = crawler.NewClient(log); err != nil {
		log.Warn("crawler disabled", "error", err)
		c.Crawler = nil
	}
	if c.Video, err = videogen.NewClient(log); err != nil {
		log.Warn("video generation disabled", "error", err)
		c.Video = nil
	}
	if c.Media, err = mux.NewClient(log); err != nil {
		log.Warn("media host disabled", "error", err)
		c.Media = nil
	}
	if c.CDN, err = cloudinary.NewClient(log); err != nil {
		log.Warn("image CDN disabled", "error", err)
		c.CDN = nil
	}
	if c.Graph, err = neo4jdb.NewFromEnv(log); err != nil {
		log.Warn("knowledge graph disabled", "error", err)
		c.Graph = nil
	}
	if c.Progress, err = redis.NewProgressBus(log); err != nil {
		log.Warn("progress bus disabled", "error", err)
		c.Progress = nil
	}
	return c, nil
}

// wireActivities assembles the worker-side dependency bundle.
func wireActivities(db *gorm.DB, log *logger.Logger, c Clients) *pipeline.Activities {
	articleRepo := repos.NewArticleRepo(db, log)
	hubRepo := repos.NewHubRepo(db, log)
	companyRepo := repos.NewCompanyRepo(db, log)
	countryRepo := repos.NewCountryRepo(db, log)
	boardRepo := repos.NewBoardRepo(db, log)
	historyRepo := repos.NewScrapeHistoryRepo(db, log)

	syncer := kg.NewSyncer(c.Graph, c.AI, log)
	researcher := research.NewResearcher(c.News, c.Deep, c.Crawler, syncer, c.AI, log)
	generator := narrative.NewGenerator(c.AI, log)
	chainer := media.NewImageChainer(c.AI, c.CDN, log)

	return &pipeline.Activities{
		Log:       log,
		Articles:  articleRepo,
		Hubs:      hubRepo,
		Companies: companyRepo,
		Countries: countryRepo,
		Boards:    boardRepo,
		History:   historyRepo,

		Researcher: researcher,
		Generator:  generator,
		Images:     chainer,

		AI:      c.AI,
		Video:   c.Video,
		Media:   c.Media,
		CDN:     c.CDN,
		Crawler: c.Crawler,
		News:    c.News,
		KG:      syncer,

		Progress: c.Progress,
	}
}
