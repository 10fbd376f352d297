package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"ai-research-be/internal/config"
	"ai-research-be/internal/model"
	"ai-research-be/pkg/database"
	"ai-research-be/pkg/embedding"
	embeddingfactory "ai-research-be/pkg/embedding/factory"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type fixtureChunk struct {
	Kind string
	Text string
}

type fixturePaper struct {
	Id           string
	Title        string
	Authors      []string
	Venue        string
	Year         int
	Rating       float64
	Decision     string
	Presentation string
	Keywords     []string
	Abstract     string
	Chunks       []fixtureChunk
}

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// Embeddings are optional. Without a provider the corpus still serves
	// keyword retrieval.
	var embedder embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider != "" {
		embedder, err = embeddingfactory.NewEmbeddingProvider(
			cfg.Ai.EmbeddingProvider,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingAPIKey,
			cfg.Ai.EmbeddingBaseURL,
		)
		if err != nil {
			log.Printf("Warn: embedding provider unavailable, seeding without vectors: %v", err)
			embedder = nil
		} else {
			log.Printf("Seeding with embeddings via %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)
		}
	}

	log.Println("Seeding Demo Corpus...")

	papers := demoCorpus()
	created, skipped := 0, 0

	for _, p := range papers {
		authors, _ := json.Marshal(p.Authors)
		keywords, _ := json.Marshal(p.Keywords)

		paper := model.Paper{
			Id:           p.Id,
			Title:        p.Title,
			Authors:      datatypes.JSON(authors),
			Venue:        p.Venue,
			Year:         p.Year,
			Rating:       p.Rating,
			Decision:     p.Decision,
			Presentation: p.Presentation,
			Keywords:     datatypes.JSON(keywords),
			Abstract:     p.Abstract,
		}
		if err := db.Create(&paper).Error; err != nil {
			if isDuplicateKey(err) {
				log.Printf("Paper '%s' already exists, skipping...", p.Id)
				skipped++
			} else {
				log.Printf("Error creating paper '%s': %v", p.Id, err)
			}
			continue
		}

		chunks := make([]model.PaperChunk, 0, len(p.Chunks))
		counters := map[string]int{}
		for _, c := range p.Chunks {
			idx := counters[c.Kind]
			counters[c.Kind] = idx + 1

			chunk := model.PaperChunk{
				Id:         chunkId(p.Id, c.Kind, idx),
				PaperId:    p.Id,
				Kind:       c.Kind,
				ChunkIndex: idx,
				Text:       c.Text,
			}
			if embedder != nil {
				res, embErr := embedder.Generate(c.Text, embedding.TaskRetrievalDocument)
				if embErr != nil {
					log.Printf("Warn: embedding failed for %s: %v", chunk.Id, embErr)
				} else {
					v := pgvector.NewVector(res.Embedding.Values)
					chunk.Embedding = &v
				}
			}
			chunks = append(chunks, chunk)
		}

		if err := db.CreateInBatches(chunks, 100).Error; err != nil {
			log.Printf("Error creating chunks for '%s': %v", p.Id, err)
			continue
		}

		log.Printf("Created paper: %s (%d chunks)", p.Id, len(chunks))
		created++
	}

	log.Printf("✅ Corpus seeding completed: %d created, %d skipped.", created, skipped)
}

func chunkId(paperId, kind string, idx int) string {
	return fmt.Sprintf("%s-%s-%d", paperId, kind, idx)
}

// isDuplicateKey detects a Postgres unique violation, so reseeding an
// existing corpus skips instead of failing.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// demoCorpus is a small reviewed-paper set. Large enough to make retrieval,
// filters and citation grading interesting; small enough to seed in seconds.
func demoCorpus() []fixturePaper {
	return []fixturePaper{
		{
			Id:           "lowres-aug-2024",
			Title:        "Subword Swap: Data Augmentation for Low-Resource Morphologically Rich Languages",
			Authors:      []string{"A. Okafor", "M. Lindqvist", "T. Deshmukh"},
			Venue:        "ACL",
			Year:         2024,
			Rating:       7.0,
			Decision:     "Accept (poster)",
			Presentation: "poster",
			Keywords:     []string{"data augmentation", "low-resource", "morphology", "machine translation"},
			Abstract:     "We propose Subword Swap, a data augmentation method that perturbs morpheme boundaries using an unsupervised segmenter. On five low-resource translation pairs the method improves BLEU by 1.8 on average without external data.",
			Chunks: []fixtureChunk{
				{Kind: "meta", Text: "Subword Swap: Data Augmentation for Low-Resource Morphologically Rich Languages. ACL 2024, poster. Keywords: data augmentation, low-resource, morphology, machine translation."},
				{Kind: "content", Text: "We propose Subword Swap, a data augmentation method that perturbs morpheme boundaries using an unsupervised segmenter. Unlike token-level noising, the perturbations respect morphological structure, producing fluent synthetic sentences. On five low-resource translation pairs the method improves BLEU by 1.8 on average without external data."},
				{Kind: "content", Text: "The augmentation pipeline first segments each training sentence with Morfessor, then swaps sibling morphemes sampled from a frequency-matched candidate pool. A filtering step removes candidates whose round-trip translation diverges, which the ablation shows is critical for the gains."},
				{Kind: "review", Text: "Review 1 (rating 7): The method is simple and well motivated. The gains are consistent across language pairs. I would have liked a comparison against back-translation with comparable compute."},
				{Kind: "review", Text: "Review 2 (rating 7): Clear paper. The morphological filtering ablation convinced me the gains are not noise. Writing could better separate the segmenter choice from the augmentation policy."},
				{Kind: "decision", Text: "Meta-review: Both reviewers found the augmentation method sound and the low-resource evaluation thorough. Decision: Accept (poster)."},
			},
		},
		{
			Id:           "backtrans-budget-2023",
			Title:        "Back-Translation on a Budget: Sample-Efficient Augmentation for Neural MT",
			Authors:      []string{"R. Castellanos", "Y. Inoue"},
			Venue:        "EMNLP",
			Year:         2023,
			Rating:       6.0,
			Decision:     "Accept (findings)",
			Presentation: "virtual",
			Keywords:     []string{"back-translation", "data augmentation", "machine translation", "sample efficiency"},
			Abstract:     "Back-translation is the dominant augmentation strategy for machine translation but its cost scales with monolingual corpus size. We show that uncertainty-based selection of source sentences retains 92% of the BLEU gain at 15% of the decoding cost.",
			Chunks: []fixtureChunk{
				{Kind: "meta", Text: "Back-Translation on a Budget: Sample-Efficient Augmentation for Neural MT. EMNLP 2023 Findings, virtual presentation. Keywords: back-translation, data augmentation, machine translation, sample efficiency."},
				{Kind: "content", Text: "Back-translation is the dominant augmentation strategy for machine translation but its cost scales with monolingual corpus size. We rank monolingual sentences by model uncertainty and back-translate only the top fraction. Uncertainty-based selection retains 92% of the BLEU gain at 15% of the decoding cost."},
				{Kind: "content", Text: "Experiments cover German, Nepali and Sinhala targets. The selection policy transfers across domains: a ranker fitted on news text keeps its advantage on medical abstracts, suggesting the uncertainty signal captures sentence difficulty rather than domain artifacts."},
				{Kind: "review", Text: "Review 1 (rating 6): Practical contribution with solid experiments. The novelty is moderate since active-learning style selection has been tried for distillation, but the cost analysis is valuable."},
				{Kind: "review", Text: "Review 2 (rating 6): The paper answers a question practitioners actually have. I remain unsure the 15% figure generalizes beyond the tested pairs; please soften the claim."},
				{Kind: "decision", Text: "Meta-review: Useful engineering contribution with honest cost accounting, limited methodological novelty. Decision: Accept to Findings."},
			},
		},
		{
			Id:           "synth-paraphrase-2024",
			Title:        "When Synthetic Paraphrases Hurt: A Study of Augmentation-Induced Semantic Drift",
			Authors:      []string{"L. Moreau", "K. Adeyemi", "S. Braun", "H. Park"},
			Venue:        "ICLR",
			Year:         2024,
			Rating:       5.5,
			Decision:     "Reject",
			Presentation: "none",
			Keywords:     []string{"paraphrase generation", "data augmentation", "semantic drift", "text classification"},
			Abstract:     "LLM-generated paraphrases are an increasingly popular augmentation source. We document a failure mode where iterative paraphrase augmentation drifts label semantics, degrading minority-class F1 by up to 11 points, and propose a drift-detection heuristic.",
			Chunks: []fixtureChunk{
				{Kind: "meta", Text: "When Synthetic Paraphrases Hurt: A Study of Augmentation-Induced Semantic Drift. ICLR 2024 submission, rejected. Keywords: paraphrase generation, data augmentation, semantic drift, text classification."},
				{Kind: "content", Text: "LLM-generated paraphrases are an increasingly popular augmentation source. We document a failure mode where iterative paraphrase augmentation drifts label semantics. After three augmentation rounds, minority-class F1 drops by up to 11 points on three intent classification benchmarks."},
				{Kind: "content", Text: "We propose a drift-detection heuristic that embeds each paraphrase batch and tracks the displacement of class centroids. Batches whose displacement exceeds a calibrated threshold are discarded. The heuristic recovers most of the lost F1 but adds an embedding pass per round."},
				{Kind: "review", Text: "Review 1 (rating 5): The failure mode is real and worth documenting, but the proposed detector is evaluated only on the same benchmarks used to calibrate it. Needs an independent test bed."},
				{Kind: "review", Text: "Review 2 (rating 6): Valuable negative result. The analysis of where drift originates (entity substitution vs. scope changes) is the strongest part. The mitigation feels preliminary."},
				{Kind: "rebuttal", Text: "Author response: We added a held-out calibration split in the revision and report that the detector's threshold transfers within 0.4 F1. We agree the mitigation is preliminary and have reframed it as a diagnostic."},
				{Kind: "decision", Text: "Meta-review: Interesting failure analysis, but reviewers agreed the mitigation and its evaluation are not yet mature. Decision: Reject."},
			},
		},
		{
			Id:           "speech-lowres-2023",
			Title:        "SpecMix for Whisper: Augmenting Low-Resource Speech Recognition Fine-Tuning",
			Authors:      []string{"D. Nakamura", "P. Osei"},
			Venue:        "Interspeech",
			Year:         2023,
			Rating:       6.5,
			Decision:     "Accept (oral)",
			Presentation: "oral",
			Keywords:     []string{"speech recognition", "low-resource", "spectrogram augmentation", "fine-tuning"},
			Abstract:     "Fine-tuning large pretrained speech models on under an hour of labeled audio overfits quickly. We adapt SpecMix to the fine-tuning regime with a curriculum that anneals mask sizes, cutting WER by 14% relative on four low-resource languages.",
			Chunks: []fixtureChunk{
				{Kind: "meta", Text: "SpecMix for Whisper: Augmenting Low-Resource Speech Recognition Fine-Tuning. Interspeech 2023, oral. Keywords: speech recognition, low-resource, spectrogram augmentation, fine-tuning."},
				{Kind: "content", Text: "Fine-tuning large pretrained speech models on under an hour of labeled audio overfits within a few hundred steps. We adapt SpecMix to the fine-tuning regime with a curriculum that anneals time and frequency mask sizes as validation loss plateaus. The curriculum cuts WER by 14% relative on four low-resource languages."},
				{Kind: "review", Text: "Review 1 (rating 7): Straightforward adaptation with a convincing curriculum ablation. The per-language breakdown shows the method helps most where the baseline overfits hardest, which supports the motivation."},
				{Kind: "review", Text: "Review 2 (rating 6): Solid empirical work. The comparison to frozen-encoder baselines would strengthen the paper; currently only full fine-tuning is considered."},
				{Kind: "decision", Text: "Meta-review: Reviewers agreed the curriculum variant is a meaningful improvement for the low-data regime. Decision: Accept (oral)."},
			},
		},
		{
			Id:           "tabular-aug-2022",
			Title:        "Mixup Does Not Transfer: Rethinking Augmentation for Tabular Deep Learning",
			Authors:      []string{"F. Grigoriadis", "N. Haddad", "E. Svensson"},
			Venue:        "NeurIPS",
			Year:         2022,
			Rating:       4.5,
			Decision:     "Reject",
			Presentation: "none",
			Keywords:     []string{"tabular data", "mixup", "data augmentation", "regularization"},
			Abstract:     "Interpolation-based augmentation assumes a locally linear input manifold, which tabular data violates. Across 31 datasets mixup variants underperform plain weight decay in 24 cases. We argue augmentation research for tabular models should target feature semantics instead.",
			Chunks: []fixtureChunk{
				{Kind: "meta", Text: "Mixup Does Not Transfer: Rethinking Augmentation for Tabular Deep Learning. NeurIPS 2022 submission, rejected. Keywords: tabular data, mixup, data augmentation, regularization."},
				{Kind: "content", Text: "Interpolation-based augmentation assumes a locally linear input manifold, which tabular data with categorical and heavy-tailed numeric features violates. Across 31 datasets mixup variants underperform plain weight decay in 24 cases, and the gap widens with the fraction of categorical columns."},
				{Kind: "review", Text: "Review 1 (rating 4): The benchmark is broad but the conclusion overreaches; several mixup variants designed for categorical features are missing from the comparison."},
				{Kind: "review", Text: "Review 2 (rating 5): I appreciate a careful negative study. However the paper offers little beyond the benchmark; the concluding argument about feature semantics is not operationalized."},
				{Kind: "decision", Text: "Meta-review: The empirical scope impressed reviewers but key baselines are absent and the paper stops short of a constructive alternative. Decision: Reject."},
			},
		},
	}
}
