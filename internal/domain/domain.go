package domain

import (
	"github.com/yungbote/pressroom-backend/internal/domain/content"
)

type Article = content.Article
type ArticleCountry = content.ArticleCountry
type CountryHub = content.CountryHub
type Country = content.Country
type Company = content.Company
type ArticleCompany = content.ArticleCompany
type Board = content.Board
type ScrapeHistory = content.ScrapeHistory

type NarrativePayload = content.NarrativePayload
type Section = content.Section
type FourActBeat = content.FourActBeat
type SourceRef = content.SourceRef
type ServiceStat = content.ServiceStat
type ContentImage = content.ContentImage
type VideoNarrative = content.VideoNarrative
type Act = content.Act
type MuxURLs = content.MuxURLs

type RawSource = content.RawSource
type CuratedSource = content.CuratedSource
type CuratedSet = content.CuratedSet
type ResearchResult = content.ResearchResult

const (
	ActSeconds         = content.ActSeconds
	MaxMetaDescription = content.MaxMetaDescription
	MaxExcerpt         = content.MaxExcerpt

	SourceKindNews         = content.SourceKindNews
	SourceKindDeepResearch = content.SourceKindDeepResearch
	SourceKindCrawledPage  = content.SourceKindCrawledPage
	SourceKindKGEdge       = content.SourceKindKGEdge

	ModeStory  = content.ModeStory
	ModeGuide  = content.ModeGuide
	ModeYolo   = content.ModeYolo
	ModeVoices = content.ModeVoices
	ModeTopic  = content.ModeTopic
	ModeHub    = content.ModeHub

	StatusDraft     = content.StatusDraft
	StatusPublished = content.StatusPublished
	StatusArchived  = content.StatusArchived

	RunCreated             = content.RunCreated
	RunCreatedWithWarnings = content.RunCreatedWithWarnings
	RunFailed              = content.RunFailed
)

// Text and act helpers, re-exported for callers of the aliased package.
var (
	Slugify            = content.Slugify
	NormalizeURL       = content.NormalizeURL
	StripMarkup        = content.StripMarkup
	CountWords         = content.CountWords
	ReadingTimeMinutes = content.ReadingTimeMinutes
	ActMidpoint        = content.ActMidpoint
)

type ArticleSeed = content.ArticleSeed
type CompanySeed = content.CompanySeed
type CountryGuideSeed = content.CountryGuideSeed
type MonitorSeed = content.MonitorSeed
type SegmentVideoSeed = content.SegmentVideoSeed
type TopicClusterSeed = content.TopicClusterSeed
type RunResult = content.RunResult
type SegmentVideoResult = content.SegmentVideoResult
type MonitorResult = content.MonitorResult
type GuideResult = content.GuideResult
type CompanyResult = content.CompanyResult
