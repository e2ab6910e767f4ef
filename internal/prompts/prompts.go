// Package prompts holds the prompt templates sent to the generative-AI
// service. Templates are filled in with fmt.Sprintf; keep the verb order in
// sync with the call sites in internal/service/metadata.go.
package prompts

// SourceMetadataPrompt asks for structured metadata for one candidate URL.
// Verbs: url, optional content-preview block.
const SourceMetadataPrompt = `Analyze this URL and generate metadata for a woodcarving knowledge base article.

URL: %s
%s
IMPORTANT: This is a knowledge base for woodcarving professionals and enthusiasts. Evaluate the quality critically.

Generate a JSON response with:
1. title: Concise German title
2. summary: German summary as a short headline line, a newline, then 2-3 sentences of detail
3. category: ONE of: Tutorial, Werkzeug, Material, Technik, Inspiration, Community, Geschichte, Sonstiges
4. tags: Array of 5-10 relevant German tags related to woodcarving
5. language: Detect language (Deutsch, English, or Français)
6. quality_score: Rate 0-10 based on:
   - 9-10: Expert knowledge, in-depth tutorials, professional techniques, academic articles
   - 7-8: Good blog posts, detailed guides, experienced craftspeople sharing knowledge
   - 5-6: Basic tutorials, general information, community forums
   - 3-4: Shallow content, primarily commercial/shopping pages
   - 0-2: Pure product listings, low-quality content, off-topic

REJECT (score 0-3) if:
- Primarily a shopping/e-commerce page selling products
- Product comparison/review site focused on selling
- Little to no educational content
- Affiliate marketing focused

Return ONLY valid JSON, no markdown formatting.`

// ContentPreviewLine wraps the fetched page text inside the metadata prompt.
const ContentPreviewLine = "Content preview: %s\n"

// SearchQueryPrompt expands a topic into search queries for the queue.
// Verbs: count, topic.
const SearchQueryPrompt = `Generate %d specific search queries for finding high-quality woodcarving EDUCATIONAL resources about: "%s"

IMPORTANT: Focus on finding expert knowledge, tutorials, and educational content. AVOID shopping/e-commerce sites.

Requirements:
- Queries should target educational content: tutorials, guides, techniques, how-to articles
- Use keywords like: "tutorial", "anleitung", "technik", "guide", "how to", "lernen"
- Queries should be in German, English, or French
- Focus on woodcarving, wood sculpting, traditional craftsmanship
- Mix of beginner and advanced topics
- Include specific techniques, tools, or materials when relevant
- AVOID commercial keywords like: "kaufen", "buy", "shop", "preis", "price", "bestellen"

Examples of GOOD queries:
- "Holzschnitzen Tutorial für Anfänger Schnitztechniken"
- "wood carving relief technique step by step guide"
- "sculpture sur bois outils traditionnels technique"

Return as JSON array of strings: ["query1", "query2", ...]
Return ONLY valid JSON, no markdown formatting.`

// TitleCorrectionPrompt fixes or regenerates a source title.
// Verbs: original title, url, optional summary line.
const TitleCorrectionPrompt = `Analyze and correct/improve this article title:

Original Title: "%s"
URL: %s
%s
Task:
1. Fix any spelling errors
2. If title is nonsense or unclear, generate a better German title based on URL and summary
3. Make title concise and descriptive (max 80 characters)
4. Keep original meaning if it's already good

Return ONLY the corrected title as plain text, no JSON, no quotes, no markdown.`
