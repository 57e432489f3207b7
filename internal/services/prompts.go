// internal/services/prompts.go
package services

// StyleOption pairs a stable key with a display label and the prompt
// fragment appended to generations using it.
type StyleOption struct {
	Key    string
	Label  string
	Prompt string
}

// StudioStyles are the selectable art styles of the studio generator,
// sorted by label.
var StudioStyles = []StyleOption{
	{Key: "3d_render", Label: "3D Render", Prompt: "high quality 3D render, Cycles renderer, physically-based rendering, intricate details, cinematic lighting, octane render, unreal engine, photorealistic PBR materials"},
	{Key: "anime_90s", Label: "90s Anime", Prompt: "90s anime aesthetic, retro anime screenshot, cel animation, pastel color palette, detailed hand-painted background art, iconic 90s anime style, film grain, subtle light bloom"},
	{Key: "abstract", Label: "Abstract", Prompt: "abstract painting, non-representational, bold gestural brushstrokes, rich textures, vibrant color field, emotional and expressive, style of Wassily Kandinsky"},
	{Key: "art_deco", Label: "Art Deco", Prompt: "Art Deco architecture, geometric patterns, sleek lines, gold and chrome accents, 1920s glamour, high society, luxurious materials, strong symmetry, style of The Great Gatsby"},
	{Key: "blueprint", Label: "Blueprint", Prompt: "detailed engineering blueprint, technical schematics, clean vector lines on blue paper, cyanotype, architectural drawing, annotations and measurements, grid lines"},
	{Key: "cinematic", Label: "Cinematic", Prompt: "A gritty, raw cinematic film still. Shot on 35mm Kodak Vision3 film with a vintage anamorphic lens. Heavy organic film grain, subtle motion blur, and realistic skin textures with imperfections. The lighting is low-key and dramatic with deep crushed blacks and atmospheric volumetric light. Critically, this must look like a real photograph from a movie, not a 3d render, cgi, vfx, or a video game screenshot. No digital perfection."},
	{Key: "claymation", Label: "Claymation", Prompt: "charming claymation scene, stop-motion animation aesthetic, plasticine models, visible fingerprints and tool marks, miniature set design, slightly imperfect and tactile"},
	{Key: "cyberpunk", Label: "Cyberpunk", Prompt: "cyberpunk cityscape at night, neon-drenched streets, towering holographic advertisements, dystopian future, grimy and high-tech, rain-slicked pavement, style of Blade Runner"},
	{Key: "double_exposure", Label: "Double Exposure", Prompt: "creative double exposure photograph, silhouette of a person blended with a forest landscape, abstract and ethereal, monochromatic with a single color highlight"},
	{Key: "fantasy_art", Label: "Fantasy Art", Prompt: "epic fantasy concept art, style of Frank Frazetta and an oil painting, dramatic lighting, mythical creatures, enchanted landscapes, powerful and dynamic composition, heroic scale"},
	{Key: "gothic_horror", Label: "Gothic Horror", Prompt: "gothic horror illustration, macabre and moody, dark and stormy atmosphere, style of Bram Stoker's Dracula, eerie castle setting, deep shadows, Victorian era"},
	{Key: "graffiti", Label: "Graffiti", Prompt: "vibrant graffiti mural on a brick wall, street art style, bold spray paint lettering with wildstyle elements, drips and splatters, urban art, dynamic and energetic"},
	{Key: "holographic", Label: "Holographic", Prompt: "holographic and iridescent material, shimmering rainbow colors, futuristic and ethereal, light refraction, glowing light trails, translucent and shimmering"},
	{Key: "impressionism", Label: "Impressionism", Prompt: "impressionist oil painting, style of Claude Monet, visible short thick brushstrokes, soft focus, emphasis on light and its changing qualities, outdoor scene, vibrant palette"},
	{Key: "infographic", Label: "Infographic", Prompt: "clean modern infographic, isometric design, flat icons, clear data visualization, minimalist color palette, connecting lines and labels, sharp vector graphics"},
	{Key: "kawaii", Label: "Kawaii", Prompt: "kawaii chibi illustration, super cute, big sparkling eyes, soft pastel colors, simple and adorable design, rounded shapes, minimal shading, clean lines"},
	{Key: "line_art", Label: "Line Art", Prompt: "minimalist single-line drawing, clean vector lines, black on a white background, simple and elegant, continuous line, abstract form"},
	{Key: "low_poly", Label: "Low Poly", Prompt: "low poly 3D art, faceted surfaces, vibrant geometric shapes, minimalist aesthetic, stylized and colorful, isometric perspective, simple lighting"},
	{Key: "modern_cartoon", Label: "Modern Cartoon", Prompt: "modern animation style, clean lines, bold colors, expressive characters, inspired by Pixar and Disney animation, dynamic poses, cel-shaded look"},
	{Key: "oil_painting", Label: "Oil Painting", Prompt: "masterpiece oil painting, rich impasto texture, visible brushstrokes, chiaroscuro lighting, style of Rembrandt, dramatic and emotional, deep color palette"},
	{Key: "papercraft", Label: "Papercraft", Prompt: "intricate layered papercraft, cut paper art, origami, dimensional illustration, shadow box effect, soft ambient lighting creating depth and shadows"},
	{Key: "pencil_sketch", Label: "Pencil Sketch", Prompt: "detailed graphite pencil sketch, hand-drawn, cross-hatching and smudged shading, on textured sketchbook paper, realistic proportions, artist's signature"},
	{Key: "photorealistic", Label: "Photorealistic", Prompt: "hyperrealistic photograph, sharp focus, high detail, shot on a DSLR camera with a 50mm f/1.8 lens, 8k resolution, professional photography, natural lighting"},
	{Key: "pixel_art", Label: "Pixel Art", Prompt: "detailed 16-bit pixel art, retro video game aesthetic, vibrant color palette, crisp pixels, style of classic SNES RPGs, isometric view"},
	{Key: "pop_art", Label: "Pop Art", Prompt: "Pop Art screenprint, style of Andy Warhol, bold graphic colors, Ben-Day dots for shading, iconic and repeating imagery, high contrast, flat planes of color"},
	{Key: "steampunk", Label: "Steampunk", Prompt: "steampunk invention, intricate brass and copper gears, polished wood, Victorian engineering, anachronistic technology, glowing vacuum tubes, rivets and leather straps"},
	{Key: "surrealist", Label: "Surrealist", Prompt: "surrealist dreamscape painting, style of Salvador Dalí and René Magritte, bizarre and illogical scene, unexpected juxtapositions, realistic technique with impossible concepts"},
	{Key: "ukiyo_e", Label: "Ukiyo-e", Prompt: "Japanese ukiyo-e woodblock print, style of Hokusai, flat areas of color, bold outlines, floating world aesthetic, beautiful women, kabuki actors, landscapes"},
	{Key: "vintage_comic", Label: "Vintage Comic", Prompt: "vintage comic book panel, 1960s pop art style, bold ink lines, four-color printing process, halftone dot shading, yellowed paper texture, action words"},
	{Key: "watercolor", Label: "Watercolor", Prompt: "delicate watercolor painting, soft translucent washes of color, blended edges, on textured cotton paper, bleeding colors, loose and expressive style"},
}

// CameraAngles are the selectable shot framings of the studio generator.
var CameraAngles = []StyleOption{
	{Key: "low_angle", Label: "Low Angle", Prompt: "low-angle shot, worm's-eye view"},
	{Key: "high_angle", Label: "High Angle", Prompt: "high-angle shot, bird's-eye view"},
	{Key: "eye_level", Label: "Eye-Level", Prompt: "eye-level shot"},
	{Key: "dutch_angle", Label: "Dutch Angle", Prompt: "dutch angle, canted angle, tilted frame"},
	{Key: "full_shot", Label: "Full Shot", Prompt: "full body shot, long shot"},
	{Key: "medium_shot", Label: "Medium Shot", Prompt: "medium shot"},
	{Key: "close_up", Label: "Close-Up", Prompt: "close-up shot"},
	{Key: "macro", Label: "Macro", Prompt: "macro photography, extreme close-up"},
}

// StoryGenres are the selectable genres of story mode.
var StoryGenres = []string{
	"Fantasy", "Sci-Fi", "Horror", "Thriller", "Adventure", "Noir",
	"Kids", "Action", "Comedy", "Drama", "Romance",
}

// StoryStyles are the selectable art styles of story mode.
var StoryStyles = []StyleOption{
	{Key: "photographic", Label: "Photographic", Prompt: "hyperrealistic photograph, sharp focus, high detail, professional photography, 8k, shot on a DSLR camera with a 50mm lens, cinematic lighting"},
	{Key: "found_footage", Label: "Found Footage", Prompt: "found footage style, point-of-view, realistic, grainy, VHS aesthetic, screen artifacts, timestamp in corner, shaky cam, low-light, lens distortion"},
	{Key: "disposable_camera", Label: "Disposable Camera", Prompt: "disposable camera photo, harsh direct on-camera flash, 90s aesthetic, grainy, slightly blurry, color shifts to green in shadows, date stamp in the corner, candid moment"},
	{Key: "pixar_animation", Label: "Pixar Animation", Prompt: "Pixar animation style, 3D render, vibrant colors, friendly expressive characters with exaggerated features, detailed textures, soft global illumination lighting, cinematic composition"},
	{Key: "ghibli_animation", Label: "Ghibli Animation", Prompt: "Studio Ghibli anime style, hand-drawn, lush watercolor backgrounds, whimsical atmosphere, soft pastel colors, emotional character expressions, nostalgic feel"},
	{Key: "50s_comic", Label: "1950s Sci-Fi Comic", Prompt: "1950s science fiction comic book art, retrofuturism, pulp art style, bold ink outlines, limited color palette with yellowed paper texture, halftone dots for shading, dramatic angles"},
	{Key: "noir_film", Label: "Noir Film", Prompt: "black and white, high-contrast film noir aesthetic, dramatic chiaroscuro lighting, deep shadows cutting across the scene, smoke-filled room, 1940s fashion, Venetian blinds effect"},
	{Key: "claymation", Label: "Claymation", Prompt: "detailed claymation scene, stop-motion animation look, plasticine characters, tactile feel with visible fingerprints and tool marks, miniature set design, quirky and charming"},
	{Key: "storybook", Label: "Children's Storybook", Prompt: "charming children's storybook illustration, gentle watercolors and colored pencil textures, soft ink lines, whimsical and friendly characters, pastel color palette, detailed and cozy environment"},
	{Key: "dark_fantasy", Label: "Dark Fantasy Art", Prompt: "dark fantasy concept art, epic scale, moody atmospheric lighting, style of Frank Frazetta and Zdzisław Beksiński, detailed battle-worn armor, grotesque monstrous creatures, dramatic and grim tone"},
	{Key: "crayon", Label: "Crayon Drawing", Prompt: "charming and slightly messy crayon drawing, waxy textures and variable line thickness, as if drawn by hand on paper."},
	{Key: "sticker", Label: "Die-Cut Sticker", Prompt: "glossy, die-cut sticker style illustration, thick white border, vibrant colors, and a simple, cute design."},
	{Key: "felt", Label: "Felt Craft", Prompt: "soft and fuzzy felt craft illustration. The image should look like it's made from cut-out pieces of felt, layered on top of each other, with visible stitching details."},
}

// StoryPanelCounts are the supported story lengths, in panels.
var StoryPanelCounts = []int{6, 12, 18, 24, 30, 36}

// AdventureLength describes one supported adventure duration.
type AdventureLength struct {
	Key    string
	Label  string
	Length int
}

var AdventureLengths = []AdventureLength{
	{Key: "skirmish", Label: "Skirmish", Length: 1},
	{Key: "adventure", Label: "Adventure", Length: 2},
	{Key: "campaign", Label: "Campaign", Length: 3},
	{Key: "odyssey", Label: "Odyssey", Length: 4},
}

// AdventurerSettings are the selectable worlds of adventurer mode.
var AdventurerSettings = []string{
	"Fantasy", "Sci-Fi", "Horror", "Cyberpunk", "Medieval",
	"Noir", "Western", "Post-Apocalyptic", "Steampunk",
}

// AdventurerStyles are the two visual styles of adventurer mode.
var AdventurerStyles = []StyleOption{
	{Key: "illustrated", Label: "Illustrated", Prompt: "detailed fantasy illustration, vibrant colors, clear outlines, style of a modern RPG concept art."},
	{Key: "cinematic", Label: "Cinematic", Prompt: "A gritty, raw cinematic film still. Shot on 35mm Kodak Vision3 film with a vintage anamorphic lens. Heavy organic film grain, subtle motion blur, and realistic skin textures with imperfections. The lighting is low-key and dramatic with deep crushed blacks and atmospheric volumetric light. Critically, this must look like a real photograph from a movie, not a 3d render, cgi, vfx, or a video game screenshot. No digital perfection."},
}

// FindStyle looks a style up by key in a catalog, returning the zero
// option when absent.
func FindStyle(catalog []StyleOption, key string) StyleOption {
	for _, option := range catalog {
		if option.Key == key {
			return option
		}
	}
	return StyleOption{}
}

// Kids mode catalogs. Subjects and props cap at three picks each.

const KidsMaxSelect = 3

var KidsSettings = []string{
	"forest", "castle", "city", "mountains", "space",
	"ocean", "farm", "beach", "jungle", "school",
}

var KidsSubjects = []string{
	"dog", "cat", "elephant", "bird", "lion", "rabbit",
	"fish", "turtle", "person", "robot", "squirrel", "snail",
}

var KidsProps = []string{
	"car", "airplane", "boat", "rocket", "train", "bike",
	"bus", "tree", "star", "gift", "camera", "cake",
}

// KidsStyleInstruction maps a kids style key to the full prompt preamble
// for that style. Unknown keys fall back to the coloring page style.
func KidsStyleInstruction(style string) string {
	switch style {
	case "cartoon":
		return "A bright, colorful, and friendly cartoon illustration in the style of a modern award-winning animated TV show. The scene should be vibrant, with clean lines, expressive characters, and a cheerful atmosphere. Avoid dark or scary elements."
	case "claymation":
		return "A cute and colorful claymation (plasticine) style scene. The image should look like it's made of modeling clay, with a soft, tactile feel, visible fingerprints, and charming imperfections. The characters should be playful and the lighting soft and warm, as if on a miniature set."
	case "watercolor":
		return "A soft and gentle watercolor painting illustration. The colors should be light, blended, and have a dreamy, whimsical feel with visible paper texture. Use a pastel color palette and soft ink outlines."
	case "pixel_art":
		return "A chunky, friendly 8-bit retro pixel art scene. The image should be colorful and look like a classic 1980s video game, with clear blocky pixels, a limited but vibrant color palette, and no anti-aliasing."
	case "crayon":
		return "A charming and slightly messy children's crayon drawing on textured paper. The image should have waxy textures, variable line thickness, and vibrant but slightly uneven coloring, as if drawn by a child."
	case "sticker":
		return "A glossy, die-cut sticker style illustration. The image should have vibrant colors, a simple and cute design, and be surrounded by a thick white border to make it pop. The background should be clean and simple."
	case "felt":
		return "A soft and fuzzy felt craft illustration. The image should look like it's made from cut-out pieces of colored felt, layered on top of each other, with visible stitching details and a charming, handmade quality."
	default: // coloring
		return "A simple, friendly, and fun coloring book page for a child. The drawing must have thick, clean, black outlines and no shading, colors, or complex details, making it easy to color in."
	}
}

// PerPanelWordCount sizes each story panel's narrative so longer stories
// pace themselves with shorter panels.
func PerPanelWordCount(totalPanels int) int {
	switch {
	case totalPanels <= 12:
		return 160
	case totalPanels <= 18:
		return 140
	case totalPanels <= 24:
		return 125
	case totalPanels <= 30:
		return 115
	case totalPanels <= 36:
		return 110
	default:
		return 150
	}
}

// StorySeeds returns adventure premise templates themed to a setting.
func StorySeeds(setting string) []string {
	return []string{
		"about a forgotten tomb in a " + setting + " world",
		"involving a mysterious " + setting + " artifact",
		"about a city of thieves in a " + setting + " setting",
		"on a quest for revenge in a " + setting + " landscape",
		"in a " + setting + " world where technology is forbidden",
		"about a rebellion against a galactic " + setting + " tyrant",
		"involving a journey to a lost " + setting + " land",
		"about a detective solving a bizarre crime in a " + setting + " city",
	}
}
